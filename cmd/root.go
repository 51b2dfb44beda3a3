// Package cmd implements the CLI commands for SmartDoc using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/config"
)

// Persistent flag variables.
var (
	flagConfig   string
	flagEnvFile  string
	flagLang     string
	flagLogLevel string
)

// Loaded by the root command before any subcommand runs.
var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "smartdoc",
	Short: "SmartDoc: structure text into themed, paginated documents",
	Long: `SmartDoc turns unstructured text into a styled, paginated document that can be
edited in place and exported to Word (DOCX), standalone HTML, PNG, PDF,
Markdown or JSON.

Usage:
  smartdoc format notes.txt --mode polish -o doc.json
  smartdoc export doc.json --docx --theme official
  smartdoc serve`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Configuration file (YAML), overlaid on the built-in defaults")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env", ".env", "Env file holding SMARTDOC_API_KEY")
	rootCmd.PersistentFlags().StringVar(&flagLang, "lang", "", "Message language: zh or en (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Console log level: none, normal or debug (default from config)")
}

func setup(*cobra.Command, []string) error {
	var err error
	if cfg, err = config.LoadConfiguration(flagConfig, flagEnvFile); err != nil {
		return err
	}
	if flagLang != "" {
		cfg.Language = flagLang
	}
	if flagLogLevel != "" {
		cfg.Logging.ConsoleLogger.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if log, err = cfg.Logging.Prepare(); err != nil {
		return fmt.Errorf("preparing logger: %w", err)
	}
	log.Debug("Configuration loaded", zap.String("path", flagConfig), zap.String("language", cfg.Language))
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
