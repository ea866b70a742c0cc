package uploader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validation failures are never retried; they surface before any
// network call is made.
var (
	// ErrFileLimitExceeded rejects a whole batch that would push the queue
	// over its configured file limit.
	ErrFileLimitExceeded = errors.New("file limit exceeded")
	// ErrNoValidFiles signals that extension filtering left nothing to upload.
	ErrNoValidFiles = errors.New("no valid files to upload")
	// ErrInvalidName rejects names the server would refuse outright.
	ErrInvalidName = errors.New("invalid file name")
)

// ValidateFile checks that a path exists, is a regular file, and is readable.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file not readable: %w", err)
	}
	f.Close()

	return nil
}

// ValidateName rejects names the API refuses: path separators,
// non-printable characters, leading/trailing whitespace, and the
// reserved dot names.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidName, name)
	}
	return nil
}

// extensionOf returns the lowercased extension without the leading dot.
func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// extensionAllowed applies the configured extension filter; an empty
// filter allows everything.
func extensionAllowed(name string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := extensionOf(name)
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}
