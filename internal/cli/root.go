package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/config"
	"github.com/harborscm/csvsift/internal/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "csvsift",
	Short: "Encoding-aware reader and importer for delimited text files",
	Long: `csvsift reads delimited text files the way databases export them: any
encoding, any delimiter, optionally compressed. It detects the format,
previews and converts files, and bulk-imports them into SQL Server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			cfg, err = config.LoadFile(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("output") {
			cfg.Output, _ = cmd.Flags().GetString("output")
		}
		logging.Setup(cfg.LogLevel, cfg.Output)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a config file (default: csvsift.yaml from . or ~/.csvsift)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "log format (text, json)")
}
