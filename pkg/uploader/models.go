package uploader

import (
	"time"
)

// Status is the lifecycle state of an upload task.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusComplete
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "inprogress"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Task is one file in the upload queue. Consumers receive copies;
// the orchestrator owns the canonical record until a terminal state.
type Task struct {
	ID        string
	Path      string
	Name      string
	Size      int64
	Extension string
	FolderID  string
	Status    Status
	// Progress is a percentage in [0,100], non-decreasing while the task
	// is in progress and exactly 100 once complete.
	Progress      float64
	UploadedBytes int64
	Error         string
	RetryCount    int
	StartTime     time.Time
	// FileID is the server-side id after a successful upload.
	FileID string
}

// EventType enumerates orchestrator notifications.
type EventType int

const (
	EventEnqueued EventType = iota
	EventStarted
	EventProgress
	EventComplete
	EventError
	EventRemoved
	EventRetried
)

func (t EventType) String() string {
	switch t {
	case EventEnqueued:
		return "enqueued"
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	case EventRemoved:
		return "removed"
	case EventRetried:
		return "retried"
	default:
		return "unknown"
	}
}

// Event is one entry in the orchestrator's ordered notification stream.
// Progress events for a given task are emitted in order and their
// Progress values never decrease. Message strings are for display only.
type Event struct {
	Type     EventType
	TaskID   string
	Name     string
	Progress float64
	Uploaded int64
	Total    int64
	Message  string
	Err      error
}

// Summary aggregates terminal outcomes for a batch. Failure and success
// counts are reported separately, never collapsed into one flag.
type Summary struct {
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int
	UploadedBytes  int64
	Errors         []TaskError
}

// TaskError captures a failed task for the summary.
type TaskError struct {
	Name    string
	Message string
}

// Defaults for the orchestrator. The concurrency and retry caps are
// deliberately configuration, not constants.
const (
	DefaultConcurrency = 6
	DefaultFileLimit   = 100
	MaxRetries         = 5

	defaultRetryDelay = time.Second
	eventBufferSize   = 256
)

// Config controls an Orchestrator.
type Config struct {
	// FolderID is the upload target folder ("0" is the root).
	FolderID string
	// Concurrency caps simultaneous in-flight transfers.
	Concurrency int
	// FileLimit caps the total number of tasks in the queue.
	FileLimit int
	// AllowedExtensions filters enqueued files; empty allows everything.
	AllowedExtensions []string
	// Overwrite selects the 409 conflict strategy.
	Overwrite OverwriteMode
	// ComputeSHA1 includes a content digest with each transfer.
	ComputeSHA1 bool
}

// NewConfig returns a Config with the stock defaults.
func NewConfig(folderID string) Config {
	return Config{
		FolderID:    folderID,
		Concurrency: DefaultConcurrency,
		FileLimit:   DefaultFileLimit,
		Overwrite:   OverwriteRename,
		ComputeSHA1: true,
	}
}
