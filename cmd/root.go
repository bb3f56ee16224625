package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prettymuchbryce/testwire/internal/config"
	"github.com/prettymuchbryce/testwire/internal/pathutil"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded before every command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "testwire",
	Short: "testwire - Report test progress as framed messages for IDEs and CI dashboards",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		SetupLogging("warn")

		var err error
		if cmd.Flags().Changed("config") {
			cfg, err = config.Load(configPath)
		} else {
			paths := []string{configPath}
			if user, userErr := pathutil.UserConfigPath(); userErr == nil {
				paths = append(paths, user)
			}
			cfg, err = config.LoadFirst(afero.NewOsFs(), paths...)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		SetupLogging(cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func SetVersion(v string) {
	rootCmd.Version = v
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError prints err the way cobra would, except for test failures,
// which the report has already shown.
func printError(w io.Writer, err error) {
	if errors.Is(err, errTestsFailed) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
