package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// FileHashMapping records where a content hash already lives on the
// server, keyed by the file's dedup hash.
type FileHashMapping struct {
	FileID   string `json:"fileID"`
	FolderID string `json:"folderID"`
	Name     string `json:"name"`
}

// GetFileHashMapping returns the mapping for a content hash, nil when
// the hash has never been uploaded.
func (s *Store) GetFileHashMapping(fileHash string) (*FileHashMapping, error) {
	value, err := s.getValue(bucketFileHashes, []byte(fileHash))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	var mapping FileHashMapping
	if err := json.Unmarshal(value, &mapping); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file hash mapping: %w", err)
	}
	return &mapping, nil
}

// SaveFileHashMapping stores the hash-to-file mapping after a
// successful upload.
func (s *Store) SaveFileHashMapping(fileHash string, mapping *FileHashMapping) error {
	value, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal file hash mapping: %w", err)
	}
	return s.putValue(bucketFileHashes, []byte(fileHash), value)
}

// WatchState stores the persistent state of a folder watcher.
type WatchState struct {
	WatchPath     string `json:"watchPath"`
	FolderID      string `json:"folderID"`
	DebounceMs    int    `json:"debounceMs"`
	StartedAt     int64  `json:"startedAt"`
	LastProcessed int64  `json:"lastProcessed"`
}

// GetWatchState returns the saved state for a watch path, nil when the
// path has never been watched.
func (s *Store) GetWatchState(watchPath string) (*WatchState, error) {
	// Hex key handles long paths and separators.
	key := fmt.Sprintf("%x", watchPath)
	value, err := s.getValue(bucketWatch, []byte(key))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	var state WatchState
	if err := json.Unmarshal(value, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal watch state: %w", err)
	}
	return &state, nil
}

// SaveWatchState saves the watch state for its path.
func (s *Store) SaveWatchState(state *WatchState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal watch state: %w", err)
	}
	key := fmt.Sprintf("%x", state.WatchPath)
	return s.putValue(bucketWatch, []byte(key), value)
}

// FileProcessStatus is the terminal state of one watched file.
type FileProcessStatus int

const (
	StatusProcessing FileProcessStatus = iota
	StatusUploaded
	StatusDuplicate
	StatusFailed
)

func (s FileProcessStatus) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusUploaded:
		return "uploaded"
	case StatusDuplicate:
		return "duplicate"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProcessedFile tracks a file the watcher has handled.
type ProcessedFile struct {
	FilePath    string            `json:"filePath"`
	FileHash    string            `json:"fileHash"`
	FileID      string            `json:"fileID"`
	FolderID    string            `json:"folderID"`
	ProcessedAt int64             `json:"processedAt"`
	Status      FileProcessStatus `json:"status"`
	Error       string            `json:"error,omitempty"`
}

// GetProcessedFile returns the record for a file path, nil when the
// watcher has not handled it.
func (s *Store) GetProcessedFile(filePath string) (*ProcessedFile, error) {
	key := fmt.Sprintf("%x", filePath)
	value, err := s.getValue(bucketProcessed, []byte(key))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	var file ProcessedFile
	if err := json.Unmarshal(value, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal processed file: %w", err)
	}
	return &file, nil
}

// SaveProcessedFile records the outcome for a watched file.
func (s *Store) SaveProcessedFile(file *ProcessedFile) error {
	if file.ProcessedAt == 0 {
		file.ProcessedAt = time.Now().Unix()
	}
	value, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal processed file: %w", err)
	}
	key := fmt.Sprintf("%x", file.FilePath)
	return s.putValue(bucketProcessed, []byte(key), value)
}

// ProcessedFiles returns every record the watcher has written.
func (s *Store) ProcessedFiles() ([]*ProcessedFile, error) {
	values, err := s.allValues(bucketProcessed)
	if err != nil {
		return nil, err
	}

	files := make([]*ProcessedFile, 0, len(values))
	for _, value := range values {
		var file ProcessedFile
		if err := json.Unmarshal(value, &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal processed file: %w", err)
		}
		files = append(files, &file)
	}
	return files, nil
}
