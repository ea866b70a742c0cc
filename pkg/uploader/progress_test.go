package uploader

import (
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestTruncateFilename(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short name untouched", "a.jpg", 30, "a.jpg"},
		{"long name truncated", "a-very-long-filename-for-testing.jpg", 20, "a-very-long-filen..."},
		{"tiny budget", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateFilename(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateFilename(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestRenderReportsFailures(t *testing.T) {
	tracker := NewProgressTracker()
	tasks := []Task{
		{Name: "a.jpg", Size: 100, Status: StatusComplete},
		{Name: "b.jpg", Size: 100, Status: StatusError},
		{Name: "c.jpg", Size: 100, Status: StatusInProgress, UploadedBytes: 50},
	}

	line := tracker.Render(tasks)
	if !strings.Contains(line, "[2/3]") {
		t.Errorf("Render() = %q, want terminal count [2/3]", line)
	}
	if !strings.Contains(line, "1 failed") {
		t.Errorf("Render() = %q, want failed suffix", line)
	}
	if !strings.Contains(line, "c.jpg") {
		t.Errorf("Render() = %q, want in-progress file name", line)
	}
}

func TestRenderSummarySeparatesCounts(t *testing.T) {
	tracker := NewProgressTracker()
	summary := Summary{
		TotalFiles:     3,
		CompletedFiles: 2,
		FailedFiles:    1,
		UploadedBytes:  2048,
		Errors:         []TaskError{{Name: "bad.jpg", Message: "preflight failed"}},
	}

	out := tracker.RenderSummary(summary)
	if !strings.Contains(out, "Completed: 2") {
		t.Errorf("RenderSummary() missing completed count:\n%s", out)
	}
	if !strings.Contains(out, "Failed: 1") {
		t.Errorf("RenderSummary() missing failed count:\n%s", out)
	}
	if !strings.Contains(out, "bad.jpg") {
		t.Errorf("RenderSummary() missing per-file error:\n%s", out)
	}
}
