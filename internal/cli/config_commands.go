package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/drivenav/drivenav/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage drivenav configuration",
		Long: `Configuration management commands.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())
	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup.

The configuration is saved to ~/.config/drivenav/config with the API
key stored read-protected. Use --force to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.New()
			reader := bufio.NewReader(os.Stdin)

			url, err := promptLine(reader, "Hub URL: ")
			if err != nil {
				return err
			}
			cfg.Hub.URL = url

			key, err := promptSecret("Hub API key: ")
			if err != nil {
				return err
			}
			cfg.Hub.APIKey = key

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Printf("Configuration saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("hub url:         %s\n", cfg.Hub.URL)
			fmt.Printf("hub api_key:     %s\n", redactKey(cfg.Hub.APIKey))
			fmt.Printf("chunk size:      %d MB\n", cfg.Transfer.ChunkSizeMB)
			fmt.Printf("max retries:     %d\n", cfg.Transfer.MaxRetries)
			fmt.Printf("retry backoff:   %d-%d s\n", cfg.Transfer.RetryWaitMinSeconds, cfg.Transfer.RetryWaitMaxSeconds)
			fmt.Printf("proxy mode:      %s\n", cfg.Proxy.Mode)
			fmt.Printf("log level:       %s\n", cfg.Log.Level)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				fmt.Println(cfgFile)
				return nil
			}
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal, falling
// back to a plain line read for piped input.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// redactKey keeps just enough of the key to recognize it.
func redactKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
