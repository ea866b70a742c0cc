package uploader

import (
	"fmt"
	"strings"
	"time"
)

// ProgressTracker renders batch progress for terminal output from task
// snapshots. It holds no task state of its own.
type ProgressTracker struct {
	startTime time.Time
}

// NewProgressTracker creates a tracker anchored at the current time.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{startTime: time.Now()}
}

// Render formats a one-line progress bar for the given snapshot.
func (p *ProgressTracker) Render(tasks []Task) string {
	var totalBytes, uploadedBytes int64
	var done, failed int
	current := ""

	for _, task := range tasks {
		totalBytes += task.Size
		switch task.Status {
		case StatusComplete:
			done++
			uploadedBytes += task.Size
		case StatusError:
			failed++
		case StatusInProgress:
			uploadedBytes += task.UploadedBytes
			if current == "" {
				current = task.Name
			}
		}
	}

	var percent float64
	if totalBytes > 0 {
		percent = float64(uploadedBytes) / float64(totalBytes) * 100
	} else if len(tasks) > 0 {
		percent = float64(done+failed) / float64(len(tasks)) * 100
	}

	var speed string
	if elapsed := time.Since(p.startTime); elapsed.Seconds() > 0 {
		bytesPerSec := float64(uploadedBytes) / elapsed.Seconds()
		speed = fmt.Sprintf(" @ %s/s", FormatBytes(int64(bytesPerSec)))
	}

	status := fmt.Sprintf("[%d/%d] %s [%s] %.1f%% (%s / %s)%s",
		done+failed, len(tasks),
		truncateFilename(current, 30),
		renderBar(percent, 30),
		percent,
		FormatBytes(uploadedBytes), FormatBytes(totalBytes),
		speed)

	if failed > 0 {
		status += fmt.Sprintf(" | %d failed", failed)
	}

	return status
}

// RenderSummary formats the end-of-batch report. Success and failure
// counts are always reported separately.
func (p *ProgressTracker) RenderSummary(summary Summary) string {
	elapsed := time.Since(p.startTime)

	var b strings.Builder
	fmt.Fprintf(&b, "\nUpload finished in %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&b, "  Completed: %d\n", summary.CompletedFiles)
	if summary.FailedFiles > 0 {
		fmt.Fprintf(&b, "  Failed: %d\n", summary.FailedFiles)
		for _, taskErr := range summary.Errors {
			fmt.Fprintf(&b, "    - %s: %s\n", taskErr.Name, taskErr.Message)
		}
	}
	fmt.Fprintf(&b, "  Total uploaded: %s\n", FormatBytes(summary.UploadedBytes))

	return b.String()
}

func renderBar(percent float64, width int) string {
	filled := int(percent * float64(width) / 100)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatBytes formats a byte count into a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// truncateFilename truncates a filename to the specified length.
func truncateFilename(filename string, maxLen int) string {
	if len(filename) <= maxLen {
		return filename
	}
	if maxLen <= 3 {
		return filename[:maxLen]
	}
	return filename[:maxLen-3] + "..."
}
