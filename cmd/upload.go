package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/boxkit/cli/pkg/uploader"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload files to a Box folder",
	Long: `Upload one or more files with automatic retry and conflict handling.

Name conflicts follow the --overwrite mode: "rename" uploads under a
uniquified name, "replace" uploads a new version of the existing file
and "error" fails the task.

Examples:
  boxkit upload report.pdf
  boxkit upload *.jpg --folder=182930
  boxkit upload media/ -r --overwrite=replace
  boxkit upload *.mov --concurrency=3 --extensions=mov,mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringP("folder", "f", "0", "Destination folder ID (0 is the root)")
	uploadCmd.Flags().BoolP("recursive", "r", false, "Recursively upload directories")
	uploadCmd.Flags().IntP("concurrency", "w", uploader.DefaultConcurrency, "Number of concurrent uploads")
	uploadCmd.Flags().Int("limit", uploader.DefaultFileLimit, "Maximum files per batch")
	uploadCmd.Flags().StringSlice("extensions", nil, "Only upload these extensions (e.g. jpg,png)")
	uploadCmd.Flags().String("overwrite", string(uploader.OverwriteRename), "Conflict mode: rename, replace or error")
	uploadCmd.Flags().Bool("sha1", false, "Send a content hash for server-side integrity checks")
}

func runUpload(cmd *cobra.Command, args []string) error {
	folderID, _ := cmd.Flags().GetString("folder")
	recursive, _ := cmd.Flags().GetBool("recursive")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	limit, _ := cmd.Flags().GetInt("limit")
	extensions, _ := cmd.Flags().GetStringSlice("extensions")
	overwrite, _ := cmd.Flags().GetString("overwrite")
	sha1Flag, _ := cmd.Flags().GetBool("sha1")

	switch uploader.OverwriteMode(overwrite) {
	case uploader.OverwriteRename, uploader.OverwriteReplace, uploader.OverwriteError:
	default:
		return fmt.Errorf("invalid overwrite mode %q", overwrite)
	}

	files, err := discoverFiles(args, recursive, extensions)
	if err != nil {
		return fmt.Errorf("error discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to upload")
	}

	fmt.Printf("Found %d file(s) to upload\n", len(files))

	client, err := newClient()
	if err != nil {
		return err
	}

	config := uploader.NewConfig(folderID)
	config.Concurrency = concurrency
	config.FileLimit = limit
	config.AllowedExtensions = extensions
	config.Overwrite = uploader.OverwriteMode(overwrite)
	config.ComputeSHA1 = sha1Flag

	orch := uploader.New(client, config)

	done := make(chan struct{})
	tracker := uploader.NewProgressTracker()
	go func() {
		defer close(done)
		for range orch.Events() {
			fmt.Printf("\r%s", tracker.Render(orch.Tasks()))
		}
	}()

	if _, err := orch.Enqueue(files); err != nil {
		orch.Close()
		<-done
		return fmt.Errorf("enqueue failed: %w", err)
	}

	orch.Wait()
	summary := orch.Summary()
	orch.Close()
	<-done
	fmt.Println()

	printUploadSummary(summary)

	if summary.FailedFiles > 0 {
		os.Exit(1)
	}
	return nil
}

// discoverFiles expands globs and directories into a flat upload list.
func discoverFiles(paths []string, recursive bool, extensions []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, path := range paths {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", path, err)
		}
		if len(matches) == 0 {
			matches = []string{path}
		}

		for _, match := range matches {
			if err := collectFiles(match, recursive, extensions, &files, seen); err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func collectFiles(path string, recursive bool, extensions []string, files *[]string, seen map[string]bool) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path '%s': %w", path, err)
	}

	if seen[absPath] {
		return nil
	}
	seen[absPath] = true

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat '%s': %w", path, err)
	}

	if info.IsDir() {
		if !recursive {
			return fmt.Errorf("'%s' is a directory (use -r for recursive upload)", path)
		}

		entries, err := os.ReadDir(absPath)
		if err != nil {
			return fmt.Errorf("failed to read directory '%s': %w", path, err)
		}

		for _, entry := range entries {
			entryPath := filepath.Join(absPath, entry.Name())
			if err := collectFiles(entryPath, recursive, extensions, files, seen); err != nil {
				// Skip entries we can't access.
				continue
			}
		}
		return nil
	}

	*files = append(*files, absPath)
	return nil
}

func printUploadSummary(summary uploader.Summary) {
	fmt.Println("\n=== Upload Summary ===")
	fmt.Printf("Total files: %d\n", summary.TotalFiles)
	color.Green("Completed: %d", summary.CompletedFiles)

	if summary.FailedFiles > 0 {
		color.Red("Failed: %d", summary.FailedFiles)
		if len(summary.Errors) > 0 {
			fmt.Println("\nErrors:")
			for _, uploadErr := range summary.Errors {
				fmt.Printf("  - %s: %s\n", uploadErr.Name, uploadErr.Message)
			}
		}
	}

	fmt.Printf("Total uploaded: %s\n", uploader.FormatBytes(summary.UploadedBytes))
}
