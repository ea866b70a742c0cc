package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API token in the system keyring",
	Long: `Store an API token for later commands.

The token is verified against the API before it is saved. Pass it with
--token or enter it at the hidden prompt.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keyring.Delete(keyringService, keyringUser); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		color.Green("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().String("token", "", "API token to store")
}

func runLogin(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		fmt.Print("API token: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	client, err := newClientWithToken(token)
	if err != nil {
		return err
	}
	if _, err := client.FolderItems(cmd.Context(), "0", 1, 0); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		// Keyring may be unavailable on headless systems.
		fmt.Fprintf(os.Stderr, "Warning: failed to store token in keyring: %v\n", err)
		fmt.Fprintln(os.Stderr, "Set BOXKIT_TOKEN instead.")
		return nil
	}

	color.Green("Login successful")
	return nil
}
