// Package cli provides the command-line interface for drivenav.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drivenav/drivenav/internal/config"
	"github.com/drivenav/drivenav/internal/logging"
)

var (
	// Global flags
	cfgFile string
	apiKey  string
	hubURL  string
	verbose bool

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information, injected by the main package at startup.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command. With no subcommand the
// interactive browser runs.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivenav",
		Short: "drivenav - terminal client for hub file storage",
		Long: `drivenav ` + Version + ` - Built: ` + BuildTime + `
Browse hub folders, upload and download files from the terminal.

Interactive mode (default):
  A full-screen browser with background transfers.

Headless mode:
  'download' and 'upload' subcommands run one transfer and exit,
  suitable for scripts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Hub API key (overrides config)")
	rootCmd.PersistentFlags().StringVar(&hubURL, "hub-url", "", "Hub base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI with signal-aware context cancellation.
func Execute() int {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancelFunc()
	}()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(rootContext); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig resolves the config path, loads it, and applies flag
// overrides. Overrides are re-validated since a flag can blank out a
// setting as easily as set one.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration (run 'drivenav config init'): %w", err)
	}
	if apiKey != "" {
		cfg.Hub.APIKey = apiKey
	}
	if hubURL != "" {
		cfg.Hub.URL = hubURL
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCLILogger builds the console logger for headless commands.
func newCLILogger(cfg *config.Config) *logging.Logger {
	logger := logging.NewCLILogger()
	logging.SetLevel(cfg.Log.Level)
	return logger
}
