package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"go-previrt/iface"
)

var exportCmd = &cobra.Command{
	Use:   "export [interface-files...]",
	Short: "Load interface and transform files into Neo4j",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := commandConfig(cmd, nil)
		if err != nil {
			return err
		}
		transforms, _ := cmd.Flags().GetStringSlice("transform")
		if len(args) == 0 && len(transforms) == 0 {
			return fmt.Errorf("nothing to export: pass interface files or --transform")
		}
		if cfg.Neo4j.Password == "" {
			return fmt.Errorf("--neo4j-pass (or neo4j.password) is required")
		}
		return runExport(cmd.Context(), cfg.Neo4j, args, transforms)
	},
}

func init() {
	exportCmd.Flags().StringSlice("transform", nil, "transform files to export")
	exportCmd.Flags().String("neo4j-uri", "bolt://localhost:7687", "Neo4j bolt URI")
	exportCmd.Flags().String("neo4j-user", "neo4j", "Neo4j username")
	exportCmd.Flags().String("neo4j-pass", "", "Neo4j password")
	exportCmd.Flags().Bool("clean", false, "Clean existing interface graph data before loading")
}

func runExport(ctx context.Context, cfg Neo4jConfig, interfaces, transforms []string) error {
	// Decode every file before connecting.
	cis := make([]*iface.ComponentInterface, len(interfaces))
	for i, path := range interfaces {
		cis[i] = iface.NewComponentInterface(iface.Abstractor{})
		if err := cis[i].ReadFromFile(path); err != nil {
			return err
		}
	}
	ts := make([]*iface.Transform, len(transforms))
	for i, path := range transforms {
		ts[i] = iface.NewTransform(nil)
		if err := ts[i].ReadTransformFromFile(path); err != nil {
			return err
		}
	}

	loader, err := NewNeo4jLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer loader.Close()

	if cfg.Clean {
		if err := loader.CleanGraph(); err != nil {
			return err
		}
	}
	if err := loader.CreateIndexes(); err != nil {
		return err
	}
	for i, ci := range cis {
		if err := loader.LoadInterface(componentName(interfaces[i]), ci); err != nil {
			return err
		}
	}
	for i, t := range ts {
		if err := loader.LoadTransform(componentName(transforms[i]), t); err != nil {
			return err
		}
	}

	log.Println("Done! Interfaces loaded into Neo4j.")
	log.Println("")
	log.Println("Useful Cypher queries:")
	log.Println("  // Most summarized external functions")
	log.Println("  MATCH (:CallSummary)-[:CALLS]->(f:ExternalFunc) RETURN f.full_name, count(*) AS shapes ORDER BY shapes DESC LIMIT 20")
	log.Println("")
	log.Println("  // Rewritten calls")
	log.Println("  MATCH (c:Component)-[:SUMMARIZES]->(s)-[r:REWRITES_TO]->(g) RETURN c.name, s.args, g.full_name, r.args")
	return nil
}
