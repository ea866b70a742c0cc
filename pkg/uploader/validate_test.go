package uploader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFile(t *testing.T) {
	tempDir := t.TempDir()

	filePath := filepath.Join(tempDir, "photo.jpg")
	if err := os.WriteFile(filePath, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := ValidateFile(filePath); err != nil {
		t.Errorf("ValidateFile() on regular file = %v, want nil", err)
	}
	if err := ValidateFile(filepath.Join(tempDir, "missing.jpg")); err == nil {
		t.Error("ValidateFile() on missing file should fail")
	}
	if err := ValidateFile(tempDir); err == nil {
		t.Error("ValidateFile() on directory should fail")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "report.pdf", false},
		{"name with spaces inside", "my report.pdf", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dot dot", "..", true},
		{"forward slash", "a/b.txt", true},
		{"backslash", "a\\b.txt", true},
		{"leading whitespace", " report.pdf", true},
		{"trailing whitespace", "report.pdf ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error should wrap ErrInvalidName", tt.input)
			}
		})
	}
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		allowed []string
		want    bool
	}{
		{"empty filter allows everything", "a.bin", nil, true},
		{"matching extension", "photo.JPG", []string{"jpg", "png"}, true},
		{"filter with leading dot", "photo.jpg", []string{".jpg"}, true},
		{"non-matching extension", "doc.pdf", []string{"jpg", "png"}, false},
		{"no extension", "README", []string{"jpg"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extensionAllowed(tt.file, tt.allowed); got != tt.want {
				t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.file, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestComputeSHA1(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "data.bin")
	if err := os.WriteFile(filePath, []byte("hello world"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	hash, err := ComputeSHA1(filePath)
	if err != nil {
		t.Fatalf("ComputeSHA1() error = %v", err)
	}
	// sha1("hello world")
	if hash != "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed" {
		t.Errorf("ComputeSHA1() = %q, unexpected digest", hash)
	}
}

func TestComputeDedupHashIsStable(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "data.bin")
	if err := os.WriteFile(filePath, []byte("hello world"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	first, err := ComputeDedupHash(filePath)
	if err != nil {
		t.Fatalf("ComputeDedupHash() error = %v", err)
	}
	second, err := ComputeDedupHash(filePath)
	if err != nil {
		t.Fatalf("ComputeDedupHash() error = %v", err)
	}

	if first != second {
		t.Errorf("ComputeDedupHash() not stable: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Errorf("ComputeDedupHash() length = %d, want 64 hex chars", len(first))
	}
}
