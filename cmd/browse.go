package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/boxkit/cli/internal/api"
	"github.com/boxkit/cli/pkg/uploader"
)

var lsCmd = &cobra.Command{
	Use:   "ls [folderID]",
	Short: "List the contents of a folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folderID := "0"
		if len(args) == 1 {
			folderID = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newClient()
		if err != nil {
			return err
		}

		items, err := client.FolderItems(cmd.Context(), folderID, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}

		printItems(items)
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID, _ := cmd.Flags().GetString("parent")

		client, err := newClient()
		if err != nil {
			return err
		}

		folder, err := client.CreateFolder(cmd.Context(), args[0], parentID)
		if err != nil {
			return fmt.Errorf("failed to create folder: %w", err)
		}

		color.Green("Created folder %s (%s)", folder.Name, folder.ID)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <fileID>",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		if err := client.DeleteFile(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete file %s: %w", args[0], err)
		}

		color.Green("Deleted %s", args[0])
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <fileID> <newName>",
	Short: "Rename a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := uploader.ValidateName(args[1]); err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		file, err := client.RenameFile(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to rename file %s: %w", args[0], err)
		}

		color.Green("Renamed to %s", file.Name)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search files and folders by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newClient()
		if err != nil {
			return err
		}

		items, err := client.SearchItems(cmd.Context(), args[0], limit, offset)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		printItems(items)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd, mkdirCmd, rmCmd, renameCmd, searchCmd)

	lsCmd.Flags().Int("limit", 100, "Maximum entries to return")
	lsCmd.Flags().Int("offset", 0, "Pagination offset")
	mkdirCmd.Flags().StringP("parent", "p", "0", "Parent folder ID")
	searchCmd.Flags().Int("limit", 100, "Maximum entries to return")
	searchCmd.Flags().Int("offset", 0, "Pagination offset")
}

func printItems(items *api.ItemCollection) {
	if items.TotalCount == 0 {
		fmt.Println("No items found")
		return
	}

	folderColor := color.New(color.FgBlue, color.Bold)
	for _, item := range items.Entries {
		if item.Type == "folder" {
			folderColor.Printf("%-14s %s/\n", item.ID, item.Name)
		} else {
			fmt.Printf("%-14s %s  %s\n", item.ID, item.Name, uploader.FormatBytes(item.Size))
		}
	}

	if items.TotalCount > items.Offset+len(items.Entries) {
		fmt.Printf("\nShowing %d of %d items (use --offset to page)\n",
			len(items.Entries), items.TotalCount)
	}
}
