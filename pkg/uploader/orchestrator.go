package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boxkit/cli/internal/api"
)

// Orchestrator owns a bounded-concurrency queue of upload tasks and
// drives each through preflight, transfer, and the retry policy until a
// terminal state. Pending tasks start in FIFO order as slots free up;
// completion order is not guaranteed.
//
// All task mutation happens inside the orchestrator; consumers observe
// snapshots and the ordered event stream.
type Orchestrator struct {
	client *api.Client
	config Config

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []*Task
	byID    map[string]*Task
	active  int
	cancels map[string]context.CancelFunc

	emitMu sync.Mutex
	events chan Event
	closed bool

	ctx       context.Context
	cancelAll context.CancelFunc
}

// New creates an Orchestrator for the given client and config.
func New(client *api.Client, config Config) *Orchestrator {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if config.FileLimit <= 0 {
		config.FileLimit = DefaultFileLimit
	}
	if config.Overwrite == "" {
		config.Overwrite = OverwriteRename
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		client:    client,
		config:    config,
		byID:      make(map[string]*Task),
		cancels:   make(map[string]context.CancelFunc),
		events:    make(chan Event, eventBufferSize),
		ctx:       ctx,
		cancelAll: cancel,
	}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Events returns the ordered notification stream. The caller should
// drain it for as long as the orchestrator is in use.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Enqueue validates a batch of paths and appends them as pending tasks.
// A batch that would exceed the file limit is rejected whole with
// ErrFileLimitExceeded; if extension filtering leaves nothing,
// ErrNoValidFiles is returned. Valid files begin uploading as
// concurrency slots allow. Returns the ids of the created tasks.
func (o *Orchestrator) Enqueue(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoValidFiles
	}

	o.mu.Lock()
	if len(o.tasks)+len(paths) > o.config.FileLimit {
		limit := o.config.FileLimit
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: maximum %d files allowed", ErrFileLimitExceeded, limit)
	}
	o.mu.Unlock()

	var valid []*Task
	for _, path := range paths {
		name := filepath.Base(path)
		if !extensionAllowed(name, o.config.AllowedExtensions) {
			continue
		}
		if err := ValidateFile(path); err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		valid = append(valid, &Task{
			ID:        uuid.NewString(),
			Path:      path,
			Name:      name,
			Size:      info.Size(),
			Extension: extensionOf(name),
			FolderID:  o.config.FolderID,
			Status:    StatusPending,
		})
	}

	if len(valid) == 0 {
		return nil, ErrNoValidFiles
	}

	o.mu.Lock()
	ids := make([]string, 0, len(valid))
	for _, task := range valid {
		o.tasks = append(o.tasks, task)
		o.byID[task.ID] = task
		ids = append(ids, task.ID)
	}
	// Holding the emit lock across the Enqueued events keeps any Started
	// emitted by a concurrently starting worker behind them on the stream.
	o.emitMu.Lock()
	o.mu.Unlock()
	for _, task := range valid {
		o.sendLocked(Event{Type: EventEnqueued, TaskID: task.ID, Name: task.Name, Total: task.Size})
	}
	o.emitMu.Unlock()

	o.mu.Lock()
	o.processQueueLocked()
	o.mu.Unlock()

	return ids, nil
}

// processQueueLocked starts pending tasks in FIFO order while slots are
// free. Callers must hold o.mu. A task with a live cancel entry already
// has a runTask goroutine holding its slot (it shows as Pending between
// automatic retries) and must not be scheduled again.
func (o *Orchestrator) processQueueLocked() {
	for o.active < o.config.Concurrency {
		var next *Task
		for _, task := range o.tasks {
			if task.Status == StatusPending {
				if _, running := o.cancels[task.ID]; running {
					continue
				}
				next = task
				break
			}
		}
		if next == nil {
			return
		}

		o.active++
		next.Status = StatusInProgress
		next.StartTime = time.Now()

		ctx, cancel := context.WithCancel(o.ctx)
		o.cancels[next.ID] = cancel

		go o.runTask(ctx, next)
	}
}

// runTask drives one task to a terminal state, holding its concurrency
// slot across any automatic retries.
func (o *Orchestrator) runTask(ctx context.Context, task *Task) {
	o.emit(Event{Type: EventStarted, TaskID: task.ID, Name: task.Name, Total: task.Size})

	err := o.attemptLoop(ctx, task)

	o.mu.Lock()
	delete(o.cancels, task.ID)
	o.active--

	removed := o.byID[task.ID] == nil
	switch {
	case removed:
		// Task was removed mid-flight; nothing left to report.
	case err == nil:
		task.Status = StatusComplete
		task.Progress = 100
	case ctx.Err() != nil && o.ctx.Err() == nil:
		// Cancelled by Remove after the map entry check raced; treat as removed.
	default:
		task.Status = StatusError
		task.Error = err.Error()
	}
	o.processQueueLocked()
	o.cond.Broadcast()
	o.mu.Unlock()

	if removed {
		return
	}
	if err == nil {
		o.emit(Event{Type: EventComplete, TaskID: task.ID, Name: task.Name, Progress: 100, Total: task.Size})
	} else if ctx.Err() == nil || o.ctx.Err() != nil {
		o.emit(Event{Type: EventError, TaskID: task.ID, Name: task.Name, Err: err, Message: err.Error()})
	}
}

// attemptLoop runs upload attempts against the retry policy until the
// task succeeds, fails terminally, or is cancelled. Intermediate
// failures never escape this loop.
func (o *Orchestrator) attemptLoop(ctx context.Context, task *Task) error {
	name := task.Name
	fileID := ""

	for {
		err := o.attempt(ctx, task, name, fileID)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		o.mu.Lock()
		retries := task.RetryCount
		o.mu.Unlock()

		decision := Decide(err, name, retries, o.config.Overwrite)
		switch decision.Kind {
		case DecisionFail:
			return decision.Err

		case DecisionRenameAndRetry:
			name = decision.NewName
			fileID = ""

		case DecisionUseVersionID:
			fileID = decision.FileID

		case DecisionDelayAndRetry:
			select {
			case <-time.After(decision.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// The counter increments before every automatic re-attempt, and the
		// task re-enters a clean pending state for the next transfer.
		o.mu.Lock()
		task.RetryCount++
		task.Status = StatusPending
		task.Progress = 0
		task.UploadedBytes = 0
		o.mu.Unlock()
	}
}

// attempt performs one preflight + transfer round for a task.
func (o *Orchestrator) attempt(ctx context.Context, task *Task, name, fileID string) error {
	o.mu.Lock()
	task.Status = StatusInProgress
	o.mu.Unlock()

	preflight, err := o.client.Preflight(ctx, name, task.FolderID, task.Size, fileID)
	if err != nil {
		return err
	}

	var contentSHA1 string
	if o.config.ComputeSHA1 {
		// Integrity digest is best-effort; an unreadable file will fail the
		// transfer below with a better error.
		contentSHA1, _ = ComputeSHA1(task.Path)
	}

	f, err := os.Open(task.Path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	uploaded, err := o.client.UploadFile(ctx, f, task.Size, task.FolderID, api.UploadOptions{
		FileName:    name,
		FileID:      fileID,
		ContentSHA1: contentSHA1,
		OnProgress: func(uploadedBytes, total int64) {
			o.onProgress(task, uploadedBytes, total)
		},
	}, preflight.UploadURL)
	if err != nil {
		return err
	}

	o.mu.Lock()
	task.FileID = uploaded.ID
	task.Name = uploaded.Name
	o.mu.Unlock()

	return nil
}

// onProgress folds a transport progress tick into the task, keeping the
// percentage monotonically non-decreasing within an attempt.
func (o *Orchestrator) onProgress(task *Task, uploadedBytes, total int64) {
	o.mu.Lock()
	if task.Status != StatusInProgress {
		o.mu.Unlock()
		return
	}
	percent := float64(0)
	if total > 0 {
		percent = float64(uploadedBytes) / float64(total) * 100
	}
	if percent < task.Progress {
		o.mu.Unlock()
		return
	}
	task.Progress = percent
	task.UploadedBytes = uploadedBytes
	id, name := task.ID, task.Name
	o.mu.Unlock()

	o.emit(Event{Type: EventProgress, TaskID: id, Name: name, Progress: percent, Uploaded: uploadedBytes, Total: total})
}

// Remove deletes a task from the queue. An in-flight transfer is
// aborted and its slot freed immediately; removing a completed or
// errored task just drops it from the collection.
func (o *Orchestrator) Remove(id string) {
	o.mu.Lock()
	task := o.byID[id]
	if task == nil {
		o.mu.Unlock()
		return
	}

	if cancel, ok := o.cancels[id]; ok {
		cancel()
		delete(o.cancels, id)
	}

	delete(o.byID, id)
	for i, t := range o.tasks {
		if t.ID == id {
			o.tasks = append(o.tasks[:i], o.tasks[i+1:]...)
			break
		}
	}
	o.processQueueLocked()
	o.cond.Broadcast()
	o.mu.Unlock()

	o.emit(Event{Type: EventRemoved, TaskID: id, Name: task.Name})
}

// Retry re-enters an errored task into the queue. It is a no-op with an
// error for tasks in any other state.
func (o *Orchestrator) Retry(id string) error {
	o.mu.Lock()
	task := o.byID[id]
	if task == nil {
		o.mu.Unlock()
		return fmt.Errorf("no such task: %s", id)
	}
	if task.Status != StatusError {
		status := task.Status
		o.mu.Unlock()
		return fmt.Errorf("task %s is %s, only errored tasks can be retried", id, status)
	}

	task.Status = StatusPending
	task.Progress = 0
	task.UploadedBytes = 0
	task.Error = ""
	task.RetryCount = 0
	o.processQueueLocked()
	o.mu.Unlock()

	o.emit(Event{Type: EventRetried, TaskID: id, Name: task.Name})
	return nil
}

// Tasks returns a snapshot copy of the queue in insertion order.
func (o *Orchestrator) Tasks() []Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Task, 0, len(o.tasks))
	for _, task := range o.tasks {
		out = append(out, *task)
	}
	return out
}

// Wait blocks until no task is pending or in flight.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for o.active > 0 || o.pendingLocked() > 0 {
		o.cond.Wait()
	}
}

func (o *Orchestrator) pendingLocked() int {
	n := 0
	for _, task := range o.tasks {
		if task.Status == StatusPending {
			n++
		}
	}
	return n
}

// ClearCompleted sweeps successfully completed tasks out of the queue.
// Errored tasks stay visible for manual retry.
func (o *Orchestrator) ClearCompleted() {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.tasks[:0]
	for _, task := range o.tasks {
		if task.Status == StatusComplete {
			delete(o.byID, task.ID)
			continue
		}
		kept = append(kept, task)
	}
	o.tasks = kept
}

// Summary aggregates the terminal outcomes currently in the queue.
func (o *Orchestrator) Summary() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Summary{TotalFiles: len(o.tasks)}
	for _, task := range o.tasks {
		switch task.Status {
		case StatusComplete:
			s.CompletedFiles++
			s.UploadedBytes += task.Size
		case StatusError:
			s.FailedFiles++
			s.Errors = append(s.Errors, TaskError{Name: task.Name, Message: task.Error})
		}
	}
	return s
}

// Close aborts all in-flight transfers and closes the event stream.
// The orchestrator must not be used afterwards.
func (o *Orchestrator) Close() {
	o.cancelAll()

	o.mu.Lock()
	for o.active > 0 {
		o.cond.Wait()
	}
	o.mu.Unlock()

	o.emitMu.Lock()
	o.closed = true
	close(o.events)
	o.emitMu.Unlock()
}

// emit appends an event to the stream. Ordering is preserved by the
// emit lock; progress events are dropped rather than blocking when the
// consumer falls behind, lifecycle events always go through.
func (o *Orchestrator) emit(ev Event) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.sendLocked(ev)
}

// sendLocked writes an event to the stream. Callers must hold o.emitMu.
func (o *Orchestrator) sendLocked(ev Event) {
	if o.closed {
		return
	}
	if ev.Type == EventProgress {
		select {
		case o.events <- ev:
		default:
		}
		return
	}
	o.events <- ev
}
