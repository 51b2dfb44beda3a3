package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/smartdoc/config"
)

var flagDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Config prints the configuration after overlaying --config, the env file and
command-line overrides on the built-in defaults. Secrets are masked.
With --defaults it prints the built-in defaults, a starting point for a
custom file.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "Print the built-in defaults")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if flagDefaults {
		_, err := os.Stdout.Write(config.DefaultYAML())
		return err
	}
	data, err := cfg.Dump()
	if err != nil {
		return fmt.Errorf("dumping configuration: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
