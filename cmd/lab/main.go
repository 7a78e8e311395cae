// Package main provides the lab CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/labsite/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// strictMode turns reported failures into non-zero exit codes
var strictMode bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lab",
	Short: "Maintenance tools for the lab website",
	Long: `lab prepares static assets for the lab website.

It generates profile picture variants and converts the lab's publication
spreadsheet into the JSON file the publications page renders. All commands
output JSON by default; use --human for readable text.

Failures are reported but the exit status stays 0 unless --strict is set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// .env is optional; LAB_ROOT may come from it
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "Exit non-zero when a command fails")
	rootCmd.Version = Version
}

// getRoot returns the site root: LAB_ROOT if set, else the working directory.
func getRoot() (string, error) {
	if root := os.Getenv("LAB_ROOT"); root != "" {
		return config.ExpandPath(root), nil
	}
	return os.Getwd()
}

// loadSite resolves the site root and its configuration. On failure the error
// is reported and ok is false.
func loadSite() (root string, cfg *config.Config, ok bool) {
	root, err := getRoot()
	if err != nil {
		fail(ExitError, "getting current directory: %v", err)
		return "", nil, false
	}

	cfg, err = config.Load(root)
	if err != nil {
		fail(ExitConfigError, "loading config: %v", err)
		return "", nil, false
	}
	return root, cfg, true
}
