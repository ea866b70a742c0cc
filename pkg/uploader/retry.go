package uploader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/boxkit/cli/internal/api"
)

// OverwriteMode controls how name conflicts are resolved.
type OverwriteMode string

const (
	// OverwriteReplace retries a conflicting upload as a new version of the
	// existing file when the server identifies it.
	OverwriteReplace OverwriteMode = "replace"
	// OverwriteRename retries a conflicting upload under a uniquified name.
	OverwriteRename OverwriteMode = "rename"
	// OverwriteError fails a conflicting upload immediately.
	OverwriteError OverwriteMode = "error"
)

// DecisionKind enumerates retry policy outcomes.
type DecisionKind int

const (
	DecisionFail DecisionKind = iota
	DecisionRenameAndRetry
	DecisionUseVersionID
	DecisionDelayAndRetry
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionFail:
		return "fail"
	case DecisionRenameAndRetry:
		return "rename-and-retry"
	case DecisionUseVersionID:
		return "use-version-id"
	case DecisionDelayAndRetry:
		return "delay-and-retry"
	default:
		return "unknown"
	}
}

// Decision is the outcome of the retry policy for one failed attempt.
// Exactly the fields relevant to Kind are populated.
type Decision struct {
	Kind DecisionKind
	// NewName is set for DecisionRenameAndRetry.
	NewName string
	// FileID is set for DecisionUseVersionID.
	FileID string
	// Delay is set for DecisionDelayAndRetry.
	Delay time.Duration
	// Err is set for DecisionFail; it is the original error.
	Err error
}

// Decide maps a failed upload attempt to a retry decision. It is pure:
// the outcome depends only on the error, the current name, the retry
// count so far, and the configured overwrite mode.
//
// Priority order: 409 name conflicts, then rate limiting, then
// transport failures with exponential backoff, then terminal failure.
func Decide(err error, fileName string, retryCount int, overwrite OverwriteMode) Decision {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		// No HTTP status at all: transport failure, exponential backoff
		// starting at one second.
		if retryCount < MaxRetries {
			return Decision{
				Kind:  DecisionDelayAndRetry,
				Delay: (1 << retryCount) * time.Second,
			}
		}
		return Decision{Kind: DecisionFail, Err: err}
	}

	if apiErr.IsConflict() {
		if overwrite == OverwriteError {
			return Decision{Kind: DecisionFail, Err: err}
		}
		// The retry cap is absolute: a conflict that would otherwise be
		// resolved automatically fails once the budget is spent.
		if retryCount >= MaxRetries {
			return Decision{Kind: DecisionFail, Err: err}
		}
		if overwrite == OverwriteReplace && apiErr.ContextInfo.Conflicts.ID != "" {
			return Decision{Kind: DecisionUseVersionID, FileID: apiErr.ContextInfo.Conflicts.ID}
		}
		return Decision{Kind: DecisionRenameAndRetry, NewName: uniquifyName(fileName)}
	}

	if apiErr.IsRateLimited() {
		if retryCount < MaxRetries {
			delay := time.Duration(apiErr.RetryAfter) * time.Second
			if delay <= 0 {
				delay = defaultRetryDelay
			}
			return Decision{Kind: DecisionDelayAndRetry, Delay: delay}
		}
		return Decision{Kind: DecisionFail, Err: err}
	}

	return Decision{Kind: DecisionFail, Err: err}
}

// nowMillis is stubbed in tests to keep rename decisions predictable.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// uniquifyName appends a millisecond timestamp between base name and
// extension so a conflicting upload can proceed under a fresh name.
func uniquifyName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s-%d%s", base, nowMillis(), ext)
}
