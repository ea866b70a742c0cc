package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher wraps fsnotify to watch a directory tree. New
// subdirectories are picked up as they appear.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	onFile   func(string)
	onNewDir func(string)
	accept   func(string) bool
	mu       sync.RWMutex
	watched  map[string]bool
	closed   bool
}

// NewFileWatcher creates a watcher. accept filters which files trigger
// onFile; a nil accept passes everything through.
func NewFileWatcher(logger *zap.Logger, accept func(string) bool, onFile, onNewDir func(string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if accept == nil {
		accept = func(string) bool { return true }
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileWatcher{
		watcher:  watcher,
		logger:   logger,
		onFile:   onFile,
		onNewDir: onNewDir,
		accept:   accept,
		watched:  make(map[string]bool),
	}, nil
}

// AddRecursive adds a directory and all its subdirectories to the watch
// list. Inaccessible subdirectories are skipped.
func (fw *FileWatcher) AddRecursive(rootPath string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if fw.watched[path] {
				return nil
			}
			if err := fw.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
			fw.watched[path] = true
		}
		return nil
	})
}

func (fw *FileWatcher) addDirectory(dirPath string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.watched[dirPath] {
		return nil
	}
	if err := fw.watcher.Add(dirPath); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dirPath, err)
	}
	fw.watched[dirPath] = true
	return nil
}

// Start begins delivering events on a background goroutine.
func (fw *FileWatcher) Start() {
	go fw.eventLoop()
}

func (fw *FileWatcher) eventLoop() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	// Renames surface as CREATE on the new path.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone between event and stat.
		return
	}

	if info.IsDir() {
		if err := fw.addDirectory(event.Name); err != nil {
			fw.logger.Warn("failed to watch new directory",
				zap.String("dir", event.Name),
				zap.Error(err),
			)
			return
		}
		if fw.onNewDir != nil {
			fw.onNewDir(event.Name)
		}
		return
	}

	if !fw.accept(event.Name) {
		return
	}

	if fw.onFile != nil {
		fw.onFile(event.Name)
	}
}

// Close stops the watcher.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return nil
	}
	fw.closed = true
	return fw.watcher.Close()
}
