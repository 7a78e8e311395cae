package main

import (
	"fmt"

	"github.com/matsen/labsite/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key]",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration.

Values come from labsite.yml in the site root, with built-in defaults for
anything it leaves out.

Usage:
  lab config                         # Show all config
  lab config publications.source     # Get a single value
  lab config profile.optimized-size  # Dashes and underscores are equivalent`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

// ConfigValue is the response for a single-key lookup.
type ConfigValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	_, cfg, ok := loadSite()
	if !ok {
		return nil
	}

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, key := range config.Keys {
				v, _ := cfg.Lookup(key)
				fmt.Printf("%-28s %s\n", key+":", v)
			}
			for _, v := range cfg.Profile.Variants {
				fmt.Printf("%-28s %s (%dpx)\n", "profile.variant:", v.Name, v.Height)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	value, found := cfg.Lookup(args[0])
	if !found {
		fail(ExitError, "unknown config key: %s", args[0])
		return nil
	}

	if humanOutput {
		fmt.Println(value)
	} else {
		outputJSON(ConfigValue{Key: args[0], Value: value})
	}
	return nil
}
