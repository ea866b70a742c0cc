// Package cmd wires the boxkit CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"github.com/boxkit/cli/internal/api"
	"github.com/boxkit/cli/pkg/store"
)

const (
	keyringService = "boxkit-cli"
	keyringUser    = "api-token"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "boxkit",
	Short: "Upload and manage files in Box from the command line",
	Long: `boxkit is a command line client for the Box content API.

It uploads files with automatic retry and conflict handling, browses
remote folders, preprocesses media locally and can watch a directory
for new files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.boxkit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("token", "", "API token (overrides stored login)")
	rootCmd.PersistentFlags().String("api-host", "", "API host override")
	rootCmd.PersistentFlags().String("upload-host", "", "upload host override")
	rootCmd.PersistentFlags().String("shared-link", "", "shared link URL for link-scoped access")
	rootCmd.PersistentFlags().String("shared-link-password", "", "password for the shared link")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request timeout (0 means no timeout)")

	for _, key := range []string{"token", "api-host", "upload-host", "shared-link", "shared-link-password", "timeout"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".boxkit")
		}
	}

	viper.SetEnvPrefix("BOXKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine, flags and env cover everything.
	_ = viper.ReadInConfig()
}

// newLogger builds the logger for library packages. Quiet by default so
// command output stays clean.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// resolveToken looks up the API token: flag or env first, then the
// system keyring.
func resolveToken() string {
	if token := viper.GetString("token"); token != "" {
		return token
	}
	token, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		return ""
	}
	return token
}

// newClient builds an API client from the resolved configuration.
// Shared-link access works without a token.
func newClient() (*api.Client, error) {
	token := resolveToken()
	sharedLink := viper.GetString("shared-link")
	if token == "" && sharedLink == "" {
		return nil, fmt.Errorf("not logged in, run 'boxkit login' or pass --token")
	}

	return api.NewClient(api.Config{
		APIHost:            viper.GetString("api-host"),
		UploadHost:         viper.GetString("upload-host"),
		Token:              token,
		SharedLink:         sharedLink,
		SharedLinkPassword: viper.GetString("shared-link-password"),
		Timeout:            viper.GetDuration("timeout"),
	}), nil
}

// newClientWithToken builds a client for an explicit token, used before
// the token has been stored.
func newClientWithToken(token string) (*api.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("no token provided")
	}
	return api.NewClient(api.Config{
		APIHost:    viper.GetString("api-host"),
		UploadHost: viper.GetString("upload-host"),
		Token:      token,
		Timeout:    viper.GetDuration("timeout"),
	}), nil
}

// storePath returns the local database location, creating its parent
// directory.
func storePath() (string, error) {
	if path := viper.GetString("db-path"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".boxkit")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return filepath.Join(dir, "boxkit.db"), nil
}

func openStore() (*store.Store, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// shutdownTimeout bounds how long graceful shutdown waits on uploads.
const shutdownTimeout = 30 * time.Second
