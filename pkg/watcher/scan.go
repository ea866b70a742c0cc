package watcher

import (
	"os"
	"path/filepath"
)

// discoverMediaFiles walks root and returns every media or image file.
// Inaccessible entries are skipped rather than failing the scan.
func discoverMediaFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && acceptMedia(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
