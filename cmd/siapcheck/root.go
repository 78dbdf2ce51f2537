// siapcheck evaluates documents against compliance decision trees and
// reports a HIT, NO_HIT or MISSING_INFO verdict per document.
//
// Usage:
//
//	siapcheck evaluate [file...] [--scenario=<id>]
//	siapcheck batch <dir|file>... [--workers=N]
//	siapcheck scenarios list|show|validate
//	siapcheck history [--run=<id>] [--document=<id>]
//	siapcheck serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"siapcheck/internal/config"
	"siapcheck/internal/logging"
	mcpserver "siapcheck/internal/mcp"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath   string
	scenariosDir string
	dbPath       string
	logLevel     string
	logFormat    string
	output       string
}

// cfg is resolved once per invocation in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "siapcheck",
	Short: "Evidence-based compliance screening over decision trees",
	Long: `siapcheck routes each document to a compliance scenario, walks the
scenario's yes/no question tree one answer at a time and aggregates the
answers into a verdict with a risk score and a recommended action.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRootConfig,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.configPath, "config", "c", "", "YAML config file (default: built-in settings)")
	f.StringVar(&rootFlags.scenariosDir, "scenarios-dir", "", "Scenario definitions directory (default: built-in scenarios)")
	f.StringVar(&rootFlags.dbPath, "db", "", "Result store path; results are persisted only when set here or in the config")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")
	f.StringVarP(&rootFlags.output, "output", "o", "table", "Output: table, markdown or json")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
	mcpserver.Version = version
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	c := config.Default()
	if rootFlags.configPath != "" {
		loaded, err := config.Load(rootFlags.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		c = loaded
	}
	if rootFlags.scenariosDir != "" {
		c.ScenariosDir = rootFlags.scenariosDir
	}
	if rootFlags.dbPath != "" {
		c.Store.Path = rootFlags.dbPath
	}
	if rootFlags.logLevel != "" {
		c.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		c.Log.Format = rootFlags.logFormat
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, _ := logging.ParseLevel(c.Log.Level)
	logging.Init(level, c.Log.Format, cmd.ErrOrStderr())
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
