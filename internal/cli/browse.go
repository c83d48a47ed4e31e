package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/drivenav/drivenav/internal/api"
	"github.com/drivenav/drivenav/internal/logging"
	"github.com/drivenav/drivenav/internal/transfer"
	"github.com/drivenav/drivenav/internal/tui"
)

// newBrowseCmd creates the 'browse' command, the explicit spelling of
// the default interactive mode.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive hub browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context())
		},
	}
}

// runBrowse wires config, logger, hub client, and engine into the
// bubbletea program. Logs go to a file because the terminal belongs to
// the alternate screen while browsing.
func runBrowse(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logPath, err := cfg.LogFilePath()
	if err != nil {
		return err
	}
	logger, err := logging.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logger.Close()
	logging.SetLevel(cfg.Log.Level)

	client, err := api.NewClient(cfg, logger)
	if err != nil {
		return err
	}
	engine := transfer.NewEngine(client, logger)

	model := tui.NewModel(client, engine, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
