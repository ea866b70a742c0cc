package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/boxkit/cli/pkg/store"
	"github.com/boxkit/cli/pkg/uploader"
	"github.com/boxkit/cli/pkg/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <folder>",
	Short: "Watch a local folder and upload new media files",
	Long: `Watch a folder for new media files and upload them automatically.

Features:
  - Recursive watching (new subdirectories are picked up)
  - Duplicate detection against the local hash store
  - Debouncing (waits for file writes to settle)
  - State persistence across restarts
  - Graceful shutdown (Ctrl+C)

Examples:
  boxkit watch ~/Videos
  boxkit watch ~/Videos --folder=182930 --initial-scan
  boxkit watch ~/Videos --concurrency=3 --debounce=5000`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("folder", "f", "0", "Destination folder ID (0 is the root)")
	watchCmd.Flags().IntP("concurrency", "w", uploader.DefaultConcurrency, "Number of concurrent uploads")
	watchCmd.Flags().Int("debounce", watcher.DefaultDebounceMs, "File write debounce in milliseconds")
	watchCmd.Flags().Bool("initial-scan", false, "Process existing files on startup")
	watchCmd.Flags().String("overwrite", string(uploader.OverwriteRename), "Conflict mode: rename, replace or error")
}

func runWatch(cmd *cobra.Command, args []string) error {
	folderID, _ := cmd.Flags().GetString("folder")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	debounceMs, _ := cmd.Flags().GetInt("debounce")
	initialScan, _ := cmd.Flags().GetBool("initial-scan")
	overwrite, _ := cmd.Flags().GetString("overwrite")

	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path '%s': %w", args[0], err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("path '%s' does not exist: %w", absPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path '%s' is not a directory", absPath)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer st.Close()

	// Resume prior state for this path when present.
	state, err := st.GetWatchState(absPath)
	if err != nil {
		return fmt.Errorf("failed to load watch state: %w", err)
	}
	if state == nil {
		state = &store.WatchState{WatchPath: absPath}
	}
	state.FolderID = folderID
	state.DebounceMs = debounceMs

	config := uploader.NewConfig(folderID)
	config.Concurrency = concurrency
	// The watcher streams files in over time; completed tasks are swept
	// so the batch limit only needs to cover concurrent backlog.
	config.FileLimit = 10000
	config.Overwrite = uploader.OverwriteMode(overwrite)

	logger := newLogger()
	orch := uploader.New(client, config)

	w, err := watcher.New(logger, orch, st, state)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Printf("Watching folder: %s\n", absPath)
	fmt.Printf("Destination folder ID: %s\n", folderID)
	fmt.Printf("Concurrency: %d\n", concurrency)
	fmt.Printf("Debounce: %dms\n", debounceMs)

	if initialScan {
		count, err := w.InitialScan()
		if err != nil {
			return err
		}
		fmt.Printf("Initial scan queued %d file(s)\n", count)
	}

	fmt.Println("\nPress Ctrl+C to stop watching...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down watcher...")
	if err := w.Shutdown(shutdownTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: shutdown error: %v\n", err)
	}

	fmt.Println("Watch stopped")
	return nil
}
