package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var externalsCmd = &cobra.Command{
	Use:   "externals [patterns...]",
	Short: "List the functions each component uses without defining them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := commandConfig(cmd, args)
		if err != nil {
			return err
		}
		declared, _ := cmd.Flags().GetBool("declared")
		prog, err := LoadProgram(cfg.Analysis)
		if err != nil {
			return err
		}
		writeExternals(cmd.OutOrStdout(), prog, declared)
		return nil
	},
}

func init() {
	externalsCmd.Flags().Bool("declared", false, "only list bodiless declarations")
	externalsCmd.Flags().Bool("dynamic", false, "include dynamically dispatched callees (VTA)")
}

func writeExternals(w io.Writer, prog *Program, declaredOnly bool) {
	heading := color.New(color.Bold)
	for _, pkg := range prog.Components {
		heading.Fprintf(w, "%s\n", pkg.Pkg.Path())
		for _, e := range prog.Collector(pkg).Externals() {
			if declaredOnly && !e.Declared {
				continue
			}
			fmt.Fprintf(w, "  %s/%d\n", e.FullName, e.Arity)
		}
	}
}
