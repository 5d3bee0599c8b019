package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "previrt",
	Short: "Summarize and rewrite the external calls of Go components",
	Long: `previrt records, for every package of a Go module, an abstract summary of
the calls it makes to functions it does not define, persists the summaries as
interface files and resolves call rewrites against them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("color")
		switch mode {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		case "auto":
		default:
			return fmt.Errorf("invalid --color %q (want auto|on|off)", mode)
		}
		return nil
	},
}

func main() {
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(rewritesCmd)
	rootCmd.AddCommand(externalsCmd)
	rootCmd.AddCommand(exportCmd)

	rootCmd.PersistentFlags().String("config", "", "path to previrt.toml (default: <dir>/previrt.toml if present)")
	rootCmd.PersistentFlags().String("dir", ".", "project root directory")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandConfig loads the configuration for cmd and applies the flags the
// user set explicitly, plus any package patterns given as arguments.
func commandConfig(cmd *cobra.Command, patterns []string) (Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	dir, _ := flags.GetString("dir")
	cfg, err := LoadConfig(path, dir)
	if err != nil {
		return Config{}, err
	}
	if flags.Changed("dir") {
		cfg.Analysis.Dir = dir
	}
	if len(patterns) > 0 {
		cfg.Analysis.Patterns = patterns
	}
	if flags.Lookup("out") != nil && flags.Changed("out") {
		cfg.Analysis.Out, _ = flags.GetString("out")
	}
	if flags.Lookup("dynamic") != nil && flags.Changed("dynamic") {
		cfg.Analysis.Dynamic, _ = flags.GetBool("dynamic")
	}
	if flags.Lookup("shapes") != nil && flags.Changed("shapes") {
		cfg.Analysis.Shapes, _ = flags.GetBool("shapes")
	}
	if flags.Lookup("jobs") != nil && flags.Changed("jobs") {
		cfg.Analysis.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Lookup("neo4j-uri") != nil {
		if flags.Changed("neo4j-uri") {
			cfg.Neo4j.URI, _ = flags.GetString("neo4j-uri")
		}
		if flags.Changed("neo4j-user") {
			cfg.Neo4j.User, _ = flags.GetString("neo4j-user")
		}
		if flags.Changed("neo4j-pass") {
			cfg.Neo4j.Password, _ = flags.GetString("neo4j-pass")
		}
		if flags.Changed("clean") {
			cfg.Neo4j.Clean, _ = flags.GetBool("clean")
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
