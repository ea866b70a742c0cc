package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigValues(t *testing.T) {
	s := openTestStore(t)

	if v, err := s.GetConfigValue("missing"); err != nil || v != nil {
		t.Errorf("GetConfigValue(missing) = %v, %v, want nil, nil", v, err)
	}

	if err := s.PutConfigValue("endpoint", []byte("https://api.example")); err != nil {
		t.Fatalf("PutConfigValue() error = %v", err)
	}
	v, err := s.GetConfigValue("endpoint")
	if err != nil || string(v) != "https://api.example" {
		t.Errorf("GetConfigValue() = %q, %v", v, err)
	}

	if err := s.DeleteConfigValue("endpoint"); err != nil {
		t.Fatalf("DeleteConfigValue() error = %v", err)
	}
	if v, _ := s.GetConfigValue("endpoint"); v != nil {
		t.Errorf("deleted value still present: %q", v)
	}
}

func TestFileHashMappingRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if m, err := s.GetFileHashMapping("unknown"); err != nil || m != nil {
		t.Errorf("unknown hash = %+v, %v, want nil, nil", m, err)
	}

	want := &FileHashMapping{FileID: "321", FolderID: "42", Name: "a.txt"}
	if err := s.SaveFileHashMapping("abc123", want); err != nil {
		t.Fatalf("SaveFileHashMapping() error = %v", err)
	}

	got, err := s.GetFileHashMapping("abc123")
	if err != nil {
		t.Fatalf("GetFileHashMapping() error = %v", err)
	}
	if got.FileID != "321" || got.FolderID != "42" || got.Name != "a.txt" {
		t.Errorf("mapping = %+v, want %+v", got, want)
	}
}

func TestWatchStatePersistsByPath(t *testing.T) {
	s := openTestStore(t)

	state := &WatchState{
		WatchPath:  "/home/user/videos",
		FolderID:   "42",
		DebounceMs: 3000,
		StartedAt:  1700000000,
	}
	if err := s.SaveWatchState(state); err != nil {
		t.Fatalf("SaveWatchState() error = %v", err)
	}

	got, err := s.GetWatchState("/home/user/videos")
	if err != nil {
		t.Fatalf("GetWatchState() error = %v", err)
	}
	if got == nil || got.FolderID != "42" || got.DebounceMs != 3000 {
		t.Errorf("state = %+v", got)
	}

	if other, _ := s.GetWatchState("/other/path"); other != nil {
		t.Errorf("unrelated path returned state: %+v", other)
	}
}

func TestProcessedFiles(t *testing.T) {
	s := openTestStore(t)

	records := []*ProcessedFile{
		{FilePath: "/a/one.mp4", FileHash: "h1", FileID: "1", Status: StatusUploaded},
		{FilePath: "/a/two.mp4", FileHash: "h2", Status: StatusFailed, Error: "preflight failed"},
	}
	for _, rec := range records {
		if err := s.SaveProcessedFile(rec); err != nil {
			t.Fatalf("SaveProcessedFile() error = %v", err)
		}
	}

	got, err := s.GetProcessedFile("/a/one.mp4")
	if err != nil {
		t.Fatalf("GetProcessedFile() error = %v", err)
	}
	if got.FileID != "1" || got.Status != StatusUploaded {
		t.Errorf("record = %+v", got)
	}
	if got.ProcessedAt == 0 {
		t.Error("SaveProcessedFile() should stamp ProcessedAt")
	}

	all, err := s.ProcessedFiles()
	if err != nil {
		t.Fatalf("ProcessedFiles() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d records, want 2", len(all))
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status FileProcessStatus
		want   string
	}{
		{StatusProcessing, "processing"},
		{StatusUploaded, "uploaded"},
		{StatusDuplicate, "duplicate"},
		{StatusFailed, "failed"},
		{FileProcessStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
