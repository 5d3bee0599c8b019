package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go-previrt/iface"
)

// interfaceExt is the file extension of interface files written by summarize.
const interfaceExt = ".iface"

var summarizeCmd = &cobra.Command{
	Use:   "summarize [patterns...]",
	Short: "Write one interface file per component",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := commandConfig(cmd, args)
		if err != nil {
			return err
		}
		return runSummarize(cmd.Context(), cfg)
	},
}

func init() {
	summarizeCmd.Flags().String("out", "interfaces", "output directory for interface files")
	summarizeCmd.Flags().Bool("dynamic", false, "also summarize dynamically dispatched calls (VTA)")
	summarizeCmd.Flags().Bool("shapes", false, "abstract pointer arguments by pointee type")
	summarizeCmd.Flags().Int("jobs", 0, "components summarized in parallel (default GOMAXPROCS)")
}

// interfaceFileName maps a package path to the name of its interface file.
func interfaceFileName(pkgPath string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(pkgPath) + interfaceExt
}

// interfaceFiles maps each package path to its interface file name and
// fails when two packages would share one.
func interfaceFiles(pkgPaths []string) (map[string]string, error) {
	files := make(map[string]string, len(pkgPaths))
	owner := make(map[string]string, len(pkgPaths))
	for _, p := range pkgPaths {
		name := interfaceFileName(p)
		if prev, ok := owner[name]; ok && prev != p {
			return nil, fmt.Errorf("packages %s and %s both map to interface file %s", prev, p, name)
		}
		owner[name] = p
		files[p] = name
	}
	return files, nil
}

// componentName recovers the component name from an interface or transform
// file path.
func componentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newAbstractor(cfg AnalysisConfig) iface.Abstractor {
	var abs iface.Abstractor
	if cfg.Shapes {
		abs.Shapes = &TypeShapes{}
	}
	return abs
}

func runSummarize(ctx context.Context, cfg Config) error {
	prog, err := LoadProgram(cfg.Analysis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Analysis.Out, 0o755); err != nil {
		return err
	}

	paths := make([]string, len(prog.Components))
	for i, pkg := range prog.Components {
		paths[i] = pkg.Pkg.Path()
	}
	files, err := interfaceFiles(paths)
	if err != nil {
		return err
	}

	log.Printf("Summarizing %d components...", len(prog.Components))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Analysis.Jobs)
	for _, pkg := range prog.Components {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			comp := prog.Collector(pkg).Collect(newAbstractor(cfg.Analysis))
			path := filepath.Join(cfg.Analysis.Out, files[comp.Path])
			if err := comp.Iface.WriteToFile(path); err != nil {
				return fmt.Errorf("%s: %w", comp.Path, err)
			}
			log.Printf("%s: %d external call sites, %d summaries, %d references -> %s",
				comp.Path, comp.Sites, comp.Iface.Len(), len(comp.Iface.References()), path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Println("Done!")
	return nil
}
