package main

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"go-previrt/iface"
)

var rewritesCmd = &cobra.Command{
	Use:   "rewrites <transform-file> [patterns...]",
	Short: "Resolve the rewrite a transform selects for each external call site",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := commandConfig(cmd, args[1:])
		if err != nil {
			return err
		}
		interfaceFile, _ := cmd.Flags().GetString("interface")
		t := iface.NewTransform(nil)
		if interfaceFile != "" {
			if err := t.ReadInterfaceFromFile(interfaceFile); err != nil {
				return err
			}
		}
		if err := t.ReadTransformFromFile(args[0]); err != nil {
			return err
		}
		return runRewrites(cmd.OutOrStdout(), cfg, t)
	},
}

func init() {
	rewritesCmd.Flags().String("interface", "", "interface file loaded before the transform")
	rewritesCmd.Flags().Bool("dynamic", false, "also resolve dynamically dispatched calls (VTA)")
	rewritesCmd.Flags().Bool("shapes", false, "abstract pointer arguments by pointee type")
}

func runRewrites(w io.Writer, cfg Config, t *iface.Transform) error {
	log.Printf("Loaded transform with %d rewrites", t.RewriteCount())
	prog, err := LoadProgram(cfg.Analysis)
	if err != nil {
		return err
	}

	total := 0
	for _, pkg := range prog.Components {
		resolved, err := prog.Collector(pkg).ResolveRewrites(t, newAbstractor(cfg.Analysis))
		if err != nil {
			return fmt.Errorf("%s: %w", pkg.Pkg.Path(), err)
		}
		for _, r := range resolved {
			fmt.Fprintf(w, "%s: %s calls %s -> %s(%s)\n",
				r.Site, r.Caller, r.Callee, r.Rewrite.Function, strings.Join(r.Args, ", "))
		}
		total += len(resolved)
	}
	log.Printf("Resolved %d call sites", total)
	return nil
}
