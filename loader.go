package main

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"go-previrt/iface"
)

// Neo4jLoader loads component interfaces and their rewrites into a Neo4j
// database using batch UNWIND queries.
type Neo4jLoader struct {
	driver neo4j.DriverWithContext
	ctx    context.Context
}

// NewNeo4jLoader connects to Neo4j and returns a ready-to-use loader.
func NewNeo4jLoader(ctx context.Context, cfg Neo4jConfig) (*Neo4jLoader, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &Neo4jLoader{driver: driver, ctx: ctx}, nil
}

// Close releases the underlying Neo4j driver resources.
func (l *Neo4jLoader) Close() {
	l.driver.Close(l.ctx)
}

// runCypher runs a single Cypher statement with optional parameters.
func (l *Neo4jLoader) runCypher(cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(l.ctx, l.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// CleanGraph removes all previously loaded interface nodes and relationships.
func (l *Neo4jLoader) CleanGraph() error {
	log.Println("Cleaning existing interface graph data...")
	queries := []string{
		"MATCH ()-[r:REWRITES_TO]->() DELETE r",
		"MATCH ()-[r:SUMMARIZES]->() DELETE r",
		"MATCH ()-[r:CALLS]->() DELETE r",
		"MATCH ()-[r:REFERENCES]->() DELETE r",
		"MATCH (n:Component) DETACH DELETE n",
		"MATCH (n:CallSummary) DETACH DELETE n",
		"MATCH (n:ExternalFunc) DETACH DELETE n",
		"MATCH (n:ExternalSymbol) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := l.runCypher(q, nil); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndexes ensures the required Neo4j indexes exist.
func (l *Neo4jLoader) CreateIndexes() error {
	log.Println("Creating indexes...")
	indexes := []string{
		"CREATE INDEX previrt_component IF NOT EXISTS FOR (n:Component) ON (n.name)",
		"CREATE INDEX previrt_call_key IF NOT EXISTS FOR (n:CallSummary) ON (n.key)",
		"CREATE INDEX previrt_func_name IF NOT EXISTS FOR (n:ExternalFunc) ON (n.full_name)",
		"CREATE INDEX previrt_symbol_name IF NOT EXISTS FOR (n:ExternalSymbol) ON (n.name)",
	}
	for _, q := range indexes {
		if err := l.runCypher(q, nil); err != nil {
			return err
		}
	}
	return nil
}

// callKey identifies a summary entry across components by its content, so
// the same entry decoded from an interface file and from a transform file
// gets the same key.
func callKey(component, fn string, info *iface.CallInfo) string {
	return fmt.Sprintf("%s|%s|%s", component, fn, info)
}

// callRows flattens the summary entries of ci into UNWIND rows.
func callRows(component string, ci *iface.ComponentInterface) []map[string]any {
	batch := make([]map[string]any, 0, ci.Len())
	for fn := range ci.Functions() {
		for info := range ci.Calls(fn) {
			args := make([]string, len(info.Args))
			for i, t := range info.Args {
				args[i] = t.String()
			}
			batch = append(batch, map[string]any{
				"key":       callKey(component, fn, info),
				"component": component,
				"func":      fn,
				"args":      args,
				"arity":     info.NumArgs(),
				"count":     int64(info.Count),
			})
		}
	}
	return batch
}

// rewriteRows flattens the rewrites of t into UNWIND rows.
func rewriteRows(component string, t *iface.Transform) []map[string]any {
	var batch []map[string]any
	ci := t.Interface()
	for fn := range ci.Functions() {
		for info := range ci.Calls(fn) {
			rw, ok := t.RewriteFor(fn, info)
			if !ok {
				continue
			}
			args := make([]int64, len(rw.Args))
			for i, a := range rw.Args {
				args[i] = int64(a)
			}
			batch = append(batch, map[string]any{
				"key":    callKey(component, fn, info),
				"target": rw.Function,
				"args":   args,
			})
		}
	}
	return batch
}

// LoadInterface upserts a Component node, one CallSummary node per summary
// entry linked to its ExternalFunc, and the component's external symbol
// references.
func (l *Neo4jLoader) LoadInterface(component string, ci *iface.ComponentInterface) error {
	calls := callRows(component, ci)
	log.Printf("Loading %s: %d call summaries...", component, len(calls))
	err := l.runCypher(
		`MERGE (c:Component {name: $name})`,
		map[string]any{"name": component},
	)
	if err != nil {
		return err
	}
	err = l.runCypher(
		`UNWIND $batch AS row
		 MATCH (c:Component {name: row.component})
		 MERGE (s:CallSummary {key: row.key})
		 SET s.args = row.args, s.arity = row.arity, s.count = row.count
		 MERGE (f:ExternalFunc {full_name: row.func})
		 MERGE (c)-[:SUMMARIZES]->(s)
		 MERGE (s)-[:CALLS]->(f)`,
		map[string]any{"batch": calls},
	)
	if err != nil {
		return err
	}

	refs := ci.References()
	if len(refs) == 0 {
		return nil
	}
	log.Printf("Loading %s: %d references...", component, len(refs))
	return l.runCypher(
		`UNWIND $refs AS ref
		 MATCH (c:Component {name: $name})
		 MERGE (y:ExternalSymbol {name: ref})
		 MERGE (c)-[:REFERENCES]->(y)`,
		map[string]any{"name": component, "refs": refs},
	)
}

// LoadTransform loads t's interface and links every rewritten summary entry
// to the function it is rewritten to.
func (l *Neo4jLoader) LoadTransform(component string, t *iface.Transform) error {
	if err := l.LoadInterface(component, t.Interface()); err != nil {
		return err
	}
	rows := rewriteRows(component, t)
	log.Printf("Loading %s: %d rewrites...", component, len(rows))
	return l.runCypher(
		`UNWIND $batch AS row
		 MATCH (s:CallSummary {key: row.key})
		 MERGE (f:ExternalFunc {full_name: row.target})
		 MERGE (s)-[r:REWRITES_TO]->(f)
		 SET r.args = row.args`,
		map[string]any{"batch": rows},
	)
}
