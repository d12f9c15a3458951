package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fieldscan/internal/config"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fieldscan configuration",
	Long: `Inspect and generate fieldscan configuration files.

Configuration is resolved from (highest precedence first): command-line
flags, FIELDSCAN_* environment variables, a config file, built-in defaults.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a default configuration file",
	Long: `Write a commented fieldscan.yaml with all settings at their
default values.

Examples:
  fieldscan config init
  fieldscan config init my-config.yaml`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := ""
		if len(args) > 0 {
			filename = args[0]
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return err
		}
		if filename == "" {
			filename = "fieldscan.yaml"
		}
		cmd.Printf("Default configuration written to %s\n", filename)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the configuration file search paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range config.GetConfigSearchPaths() {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			cmd.Printf("\nActive config file: %s\n", used)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)
}
