// Package watcher keeps a local directory tree mirrored into a remote
// folder. File events are debounced, deduplicated against the local
// hash store and handed to the upload orchestrator.
package watcher

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/boxkit/cli/pkg/preprocess"
	"github.com/boxkit/cli/pkg/store"
	"github.com/boxkit/cli/pkg/uploader"
)

// DefaultDebounceMs is the quiet period applied when the watch state
// does not carry one.
const DefaultDebounceMs = 2000

// Watcher wires the file watcher, debounce queue, dedup store and
// upload orchestrator together for one watch path.
type Watcher struct {
	logger      *zap.Logger
	orch        *uploader.Orchestrator
	store       *store.Store
	state       *store.WatchState
	fileWatcher *FileWatcher
	debounce    *DebounceQueue

	mu         sync.Mutex
	processing map[string]bool
	// taskID -> source info, resolved when the task's terminal event
	// arrives.
	inflight map[string]pendingFile

	eventsDone chan struct{}
}

type pendingFile struct {
	path string
	hash string
}

// New creates a watcher for state.WatchPath uploading into
// state.FolderID through orch. Call Start to begin.
func New(logger *zap.Logger, orch *uploader.Orchestrator, st *store.Store, state *store.WatchState) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state.DebounceMs <= 0 {
		state.DebounceMs = DefaultDebounceMs
	}

	w := &Watcher{
		logger:     logger,
		orch:       orch,
		store:      st,
		state:      state,
		debounce:   NewDebounceQueue(time.Duration(state.DebounceMs) * time.Millisecond),
		processing: make(map[string]bool),
		inflight:   make(map[string]pendingFile),
		eventsDone: make(chan struct{}),
	}

	fileWatcher, err := NewFileWatcher(logger, acceptMedia, w.onFileEvent, w.onNewDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fileWatcher = fileWatcher

	return w, nil
}

func acceptMedia(path string) bool {
	return preprocess.IsMediaFile(path) || preprocess.IsImageFile(path)
}

// Start begins watching. It consumes the orchestrator's event stream,
// so no other consumer may be attached to the same orchestrator.
func (w *Watcher) Start() error {
	if err := w.fileWatcher.AddRecursive(w.state.WatchPath); err != nil {
		return fmt.Errorf("failed to add watch path: %w", err)
	}

	go w.consumeEvents()
	w.fileWatcher.Start()

	w.state.StartedAt = time.Now().Unix()
	if err := w.store.SaveWatchState(w.state); err != nil {
		return fmt.Errorf("failed to save watch state: %w", err)
	}

	w.logger.Info("watching folder",
		zap.String("path", w.state.WatchPath),
		zap.String("folderID", w.state.FolderID),
		zap.Int("debounceMs", w.state.DebounceMs),
	)
	return nil
}

// InitialScan walks the watch path and processes every media file
// already present. Inaccessible entries are skipped.
func (w *Watcher) InitialScan() (int, error) {
	files, err := discoverMediaFiles(w.state.WatchPath)
	if err != nil {
		return 0, fmt.Errorf("initial scan failed: %w", err)
	}

	for _, file := range files {
		w.processFile(file)
	}
	return len(files), nil
}

func (w *Watcher) onFileEvent(filePath string) {
	w.debounce.Add(filePath, w.processFile)
}

func (w *Watcher) onNewDirectory(dirPath string) {
	w.logger.Info("new directory detected", zap.String("dir", dirPath))
}

// processFile hashes the file, skips known duplicates and enqueues the
// rest on the orchestrator.
func (w *Watcher) processFile(filePath string) {
	w.mu.Lock()
	if w.processing[filePath] {
		w.mu.Unlock()
		return
	}
	w.processing[filePath] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.processing, filePath)
		w.mu.Unlock()
	}()

	hash, err := uploader.ComputeDedupHash(filePath)
	if err != nil {
		w.logger.Warn("failed to hash file", zap.String("path", filePath), zap.Error(err))
		return
	}

	mapping, err := w.store.GetFileHashMapping(hash)
	if err != nil {
		w.logger.Warn("dedup lookup failed", zap.String("path", filePath), zap.Error(err))
	}
	if mapping != nil {
		w.logger.Info("skipping duplicate",
			zap.String("path", filePath),
			zap.String("fileID", mapping.FileID),
		)
		w.recordOutcome(&store.ProcessedFile{
			FilePath: filePath,
			FileHash: hash,
			FileID:   mapping.FileID,
			FolderID: mapping.FolderID,
			Status:   store.StatusDuplicate,
		})
		return
	}

	ids, err := w.orch.Enqueue([]string{filePath})
	if err != nil {
		w.logger.Warn("failed to enqueue file", zap.String("path", filePath), zap.Error(err))
		w.recordOutcome(&store.ProcessedFile{
			FilePath: filePath,
			FileHash: hash,
			Status:   store.StatusFailed,
			Error:    err.Error(),
		})
		return
	}

	w.mu.Lock()
	for _, id := range ids {
		w.inflight[id] = pendingFile{path: filePath, hash: hash}
	}
	w.mu.Unlock()
}

// consumeEvents drains the orchestrator stream and persists terminal
// outcomes.
func (w *Watcher) consumeEvents() {
	defer close(w.eventsDone)

	for ev := range w.orch.Events() {
		switch ev.Type {
		case uploader.EventComplete:
			w.completeTask(ev)
		case uploader.EventError:
			w.failTask(ev)
		}
	}
}

func (w *Watcher) completeTask(ev uploader.Event) {
	w.mu.Lock()
	pending, ok := w.inflight[ev.TaskID]
	delete(w.inflight, ev.TaskID)
	w.mu.Unlock()
	if !ok {
		return
	}

	var fileID string
	for _, task := range w.orch.Tasks() {
		if task.ID == ev.TaskID {
			fileID = task.FileID
			break
		}
	}

	mapping := &store.FileHashMapping{
		FileID:   fileID,
		FolderID: w.state.FolderID,
		Name:     ev.Name,
	}
	if err := w.store.SaveFileHashMapping(pending.hash, mapping); err != nil {
		w.logger.Warn("failed to save hash mapping", zap.String("path", pending.path), zap.Error(err))
	}

	w.logger.Info("uploaded", zap.String("path", pending.path), zap.String("fileID", fileID))
	w.recordOutcome(&store.ProcessedFile{
		FilePath: pending.path,
		FileHash: pending.hash,
		FileID:   fileID,
		FolderID: w.state.FolderID,
		Status:   store.StatusUploaded,
	})

	// Keep the queue small over long watch sessions.
	w.orch.ClearCompleted()
}

func (w *Watcher) failTask(ev uploader.Event) {
	w.mu.Lock()
	pending, ok := w.inflight[ev.TaskID]
	delete(w.inflight, ev.TaskID)
	w.mu.Unlock()
	if !ok {
		return
	}

	w.logger.Warn("upload failed", zap.String("path", pending.path), zap.String("error", ev.Message))
	w.recordOutcome(&store.ProcessedFile{
		FilePath: pending.path,
		FileHash: pending.hash,
		FolderID: w.state.FolderID,
		Status:   store.StatusFailed,
		Error:    ev.Message,
	})
}

func (w *Watcher) recordOutcome(file *store.ProcessedFile) {
	if err := w.store.SaveProcessedFile(file); err != nil {
		w.logger.Warn("failed to save processed file record",
			zap.String("path", file.FilePath),
			zap.Error(err),
		)
	}
	w.state.LastProcessed = time.Now().Unix()
	if err := w.store.SaveWatchState(w.state); err != nil {
		w.logger.Warn("failed to save watch state", zap.Error(err))
	}
}

// Shutdown stops the watcher and waits for in-flight uploads. The
// orchestrator is closed as part of shutdown.
func (w *Watcher) Shutdown(timeout time.Duration) error {
	w.fileWatcher.Close()
	w.debounce.Stop()

	done := make(chan struct{})
	go func() {
		w.orch.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		w.logger.Warn("shutdown timeout, some uploads may be incomplete")
	}

	w.orch.Close()
	<-w.eventsDone

	if err := w.store.SaveWatchState(w.state); err != nil {
		return fmt.Errorf("failed to save watch state: %w", err)
	}
	return nil
}
