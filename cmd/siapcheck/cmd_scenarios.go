package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siapcheck/internal/format"
	"siapcheck/internal/scenarios"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Inspect and validate scenario decision trees",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := scenarios.LoadRegistry(cfg.ScenariosDir, cfg.RedFlagKeywords)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return writeJSON(out, reg.IDs())
		}
		mode, err := outputMode()
		if err != nil {
			return err
		}
		fmt.Fprint(out, format.Scenarios(mode, reg))
		return nil
	},
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print every question of one scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := scenarios.LoadRegistry(cfg.ScenariosDir, cfg.RedFlagKeywords)
		if err != nil {
			return err
		}
		g, ok := reg.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown scenario %q (known: %v)", args[0], reg.IDs())
		}
		mode, err := outputMode()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), format.Scenario(mode, g))
		return nil
	},
}

var scenariosValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check scenario definitions for structural errors",
	Long: `Load every definition in dir (default: the configured scenarios
directory, or the built-in set) and report every malformed scenario:
missing entry, dangling branch targets, bad weights, duplicate ids.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.ScenariosDir
		if len(args) == 1 {
			dir = args[0]
		}
		reg, err := scenarios.LoadRegistry(dir, cfg.RedFlagKeywords)
		if err != nil {
			return fmt.Errorf("invalid scenarios:\n%w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d scenarios (%d questions max)\n", reg.Len(), reg.MaxNodes())
		return nil
	},
}

func init() {
	scenariosCmd.AddCommand(scenariosListCmd)
	scenariosCmd.AddCommand(scenariosShowCmd)
	scenariosCmd.AddCommand(scenariosValidateCmd)
}
