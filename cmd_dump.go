package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go-previrt/iface"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print an interface or transform file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transform, _ := cmd.Flags().GetBool("transform")
		verbose, _ := cmd.Flags().GetBool("calls")
		return runDump(cmd.ErrOrStderr(), args[0], transform, verbose)
	},
}

func init() {
	dumpCmd.Flags().Bool("transform", false, "the file is a transform file")
	dumpCmd.Flags().Bool("calls", false, "list every call summary with its count")
}

func runDump(w io.Writer, path string, transform, verbose bool) error {
	heading := color.New(color.FgCyan, color.Bold)
	if !transform {
		ci := iface.NewComponentInterface(iface.Abstractor{})
		if err := ci.ReadFromFile(path); err != nil {
			return err
		}
		heading.Fprintf(w, "interface %s\n", path)
		ci.Dump(w)
		if verbose {
			dumpCalls(w, ci, nil)
		}
		return nil
	}

	t := iface.NewTransform(nil)
	if err := t.ReadTransformFromFile(path); err != nil {
		return err
	}
	heading.Fprintf(w, "transform %s (%d rewrites)\n", path, t.RewriteCount())
	t.Interface().Dump(w)
	t.Dump(w)
	if verbose {
		dumpCalls(w, t.Interface(), t)
	}
	return nil
}

// dumpCalls lists every summary entry of ci, with its rewrite when t has one.
func dumpCalls(w io.Writer, ci *iface.ComponentInterface, t *iface.Transform) {
	for fn := range ci.Functions() {
		for info := range ci.Calls(fn) {
			fmt.Fprintf(w, "  %s%s x%d", fn, info, info.Count)
			if t != nil {
				if rw, ok := t.RewriteFor(fn, info); ok {
					fmt.Fprintf(w, " -> %s", rw)
				}
			}
			fmt.Fprintln(w)
		}
	}
}
