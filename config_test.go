package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte(content), 0o644)))
	return path
}

func TestLoadConfigDefaultsWhenAbsent(t *testing.T) {
	cfg, err := LoadConfig("", t.TempDir())
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(cfg, DefaultConfig()))
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[analysis]
patterns = ["./cmd/...", "./internal/..."]
out = "summaries"
dynamic = true
jobs = 2

[neo4j]
uri = "bolt://graph:7687"
password = "secret"
`)
	cfg, err := LoadConfig("", dir)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(cfg.Analysis.Patterns, []string{"./cmd/...", "./internal/..."}))
	qt.Assert(t, qt.Equals(cfg.Analysis.Out, "summaries"))
	qt.Assert(t, qt.IsTrue(cfg.Analysis.Dynamic))
	qt.Assert(t, qt.IsFalse(cfg.Analysis.Shapes))
	qt.Assert(t, qt.Equals(cfg.Analysis.Jobs, 2))
	qt.Assert(t, qt.Equals(cfg.Analysis.Dir, "."))
	qt.Assert(t, qt.Equals(cfg.Neo4j.URI, "bolt://graph:7687"))
	qt.Assert(t, qt.Equals(cfg.Neo4j.User, "neo4j"))
	qt.Assert(t, qt.Equals(cfg.Neo4j.Password, "secret"))
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"), dir)
	qt.Assert(t, qt.ErrorIs(err, os.ErrNotExist))

	path := writeConfig(t, dir, "[analysis]\nout = \n")
	_, err = LoadConfig(path, dir)
	qt.Assert(t, qt.ErrorMatches(err, `.*failed to parse TOML.*`))

	path = writeConfig(t, dir, "[analysis]\nouput = \"x\"\n")
	_, err = LoadConfig(path, dir)
	qt.Assert(t, qt.ErrorMatches(err, `.*unknown keys \[analysis\.ouput\]`))

	path = writeConfig(t, dir, "[analysis]\njobs = 0\n")
	_, err = LoadConfig(path, dir)
	qt.Assert(t, qt.ErrorMatches(err, `.*analysis\.jobs must be positive, got 0`))

	path = writeConfig(t, dir, "[analysis]\npatterns = []\n")
	_, err = LoadConfig(path, dir)
	qt.Assert(t, qt.ErrorMatches(err, `.*analysis\.patterns must not be empty`))
}
