package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/history"
)

func TestDifferentiateText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbosity: "concise"}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"x**2"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "differentiate: Derivative(x**2, x)")
	assert.Contains(t, output, "power_rule")
	assert.Contains(t, output, "Result: 2*x")
}

func TestDifferentiateJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sin(x)"})

	err := cmd.Execute()
	require.NoError(t, err)

	var doc struct {
		Operation   string           `json:"operation"`
		Input       string           `json:"input"`
		Output      string           `json:"output"`
		Fingerprint string           `json:"fingerprint"`
		Steps       []map[string]any `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "differentiate", doc.Operation)
	assert.Equal(t, "cos(x)", doc.Output)
	assert.NotEmpty(t, doc.Fingerprint)
	assert.NotEmpty(t, doc.Steps)
}

func TestDifferentiateFlags(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"y**3", "--var", "y", "--order", "2"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Result: 6*y")
}

func TestDifferentiateInvalidExpression(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"x +"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSimplifyCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSimplifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"x + x + 2*3"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Result: 2*x + 6")
}

func TestRulesCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRulesCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--operation", "differentiate"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "power_rule")
	assert.Contains(t, output, "sum_rule")
	assert.Contains(t, output, "calculus")
	assert.NotContains(t, output, "expand_expression")
}

func TestRulesCommandDomainFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRulesCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--domain", "algebra"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "simplify_result")
	assert.Contains(t, output, "expand_expression")
	assert.NotContains(t, output, "power_rule")
}

func TestRulesCommandJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRulesCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	var docs []struct {
		Name      string   `json:"name"`
		Operation string   `json:"operation"`
		Priority  int      `json:"priority"`
		Domains   []string `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
	assert.NotEmpty(t, docs)
	for _, d := range docs {
		assert.NotEmpty(t, d.Domains, d.Name)
	}
}

func TestCatalogDisablesRule(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "catalog.cue")
	src := `
catalog: overrides: [
	{rule: "simplify_result", enabled: false},
]
`
	require.NoError(t, os.WriteFile(catalogPath, []byte(src), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Catalog: catalogPath}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"x**2"})

	err := cmd.Execute()
	require.NoError(t, err)

	// Without the final simplification the raw power-rule form remains.
	assert.Contains(t, buf.String(), "Result: 2*x**(2 - 1)")
}

func TestCatalogInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "catalog.cue")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`catalog: {`), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Catalog: catalogPath}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"x**2"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "catalog.cue")
	src := `
catalog: {
	max_iterations: 32
	overrides: [{rule: "power_rule", priority: 200}]
}
`
	require.NoError(t, os.WriteFile(catalogPath, []byte(src), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalogPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "is valid: 1 override(s), iteration budget 32")
}

func TestValidateCommandUnknownRule(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "catalog.cue")
	src := `catalog: overrides: [{rule: "no_such_rule", enabled: false}]`
	require.NoError(t, os.WriteFile(catalogPath, []byte(src), 0o644))

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{catalogPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDifferentiateSavesHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewDifferentiateCommand(rootOpts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"x**2"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, errOut.String(), "saved as ")

	store, err := history.Open(dbPath, history.UUIDv7Generator{})
	require.NoError(t, err)
	defer store.Close()

	records, err := store.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "differentiate", records[0].Operation)
	assert.Equal(t, "2*x", records[0].Output)
}

func TestHistoryListShowReplay(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	run := NewDifferentiateCommand(rootOpts)
	run.SetOut(&bytes.Buffer{})
	run.SetErr(&bytes.Buffer{})
	run.SetArgs([]string{"sin(x**2)"})
	require.NoError(t, run.Execute())

	store, err := history.Open(dbPath, history.UUIDv7Generator{})
	require.NoError(t, err)
	records, err := store.List(t.Context(), 1)
	require.NoError(t, store.Close())
	require.NoError(t, err)
	require.Len(t, records, 1)
	id := records[0].ID

	listOut := &bytes.Buffer{}
	list := newHistoryListCommand(rootOpts)
	list.SetOut(listOut)
	list.SetArgs([]string{})
	require.NoError(t, list.Execute())
	assert.Contains(t, listOut.String(), id)
	assert.Contains(t, listOut.String(), "2*x*cos(x**2)")

	showOut := &bytes.Buffer{}
	show := newHistoryShowCommand(rootOpts)
	show.SetOut(showOut)
	show.SetArgs([]string{id})
	require.NoError(t, show.Execute())
	assert.Contains(t, showOut.String(), "chain_rule_sin")
	assert.Contains(t, showOut.String(), "Result: 2*x*cos(x**2)")

	replayOut := &bytes.Buffer{}
	replay := newHistoryReplayCommand(rootOpts)
	replay.SetOut(replayOut)
	replay.SetArgs([]string{id})
	require.NoError(t, replay.Execute())
	assert.Contains(t, replayOut.String(), "replays identically")
}

func TestHistoryReplayDrift(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	run := NewDifferentiateCommand(rootOpts)
	run.SetOut(&bytes.Buffer{})
	run.SetErr(&bytes.Buffer{})
	run.SetArgs([]string{"x**2"})
	require.NoError(t, run.Execute())

	store, err := history.Open(dbPath, history.UUIDv7Generator{})
	require.NoError(t, err)
	records, err := store.List(t.Context(), 1)
	require.NoError(t, store.Close())
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Replay under a catalog that disables the final simplification, so
	// the rederived graph differs from the stored one.
	catalogPath := filepath.Join(t.TempDir(), "catalog.cue")
	src := `catalog: overrides: [{rule: "simplify_result", enabled: false}]`
	require.NoError(t, os.WriteFile(catalogPath, []byte(src), 0o644))
	driftOpts := &RootOptions{Format: "text", Database: dbPath, Catalog: catalogPath}

	replayOut := &bytes.Buffer{}
	replay := newHistoryReplayCommand(driftOpts)
	replay.SetOut(replayOut)
	replay.SetArgs([]string{records[0].ID})

	err = replay.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, replayOut.String(), "drift detected")
}

func TestHistoryWithoutDatabase(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	list := newHistoryListCommand(rootOpts)
	list.SetOut(&bytes.Buffer{})
	list.SetArgs([]string{})

	err := list.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryShowUnknown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	show := newHistoryShowCommand(rootOpts)
	show.SetOut(&bytes.Buffer{})
	show.SetArgs([]string{"missing"})

	err := show.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFinalizePrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	cfg := "format: json\nverbosity: teacher\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	// Config fills unset options.
	opts := &RootOptions{Config: configPath}
	require.NoError(t, opts.finalize())
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "teacher", opts.Verbosity)

	// Flags win over the config file.
	opts = &RootOptions{Config: configPath, Format: "text"}
	require.NoError(t, opts.finalize())
	assert.Equal(t, "text", opts.Format)
	assert.Equal(t, "teacher", opts.Verbosity)
}

func TestFinalizeRejectsBadFormat(t *testing.T) {
	opts := &RootOptions{Format: "xml"}
	err := opts.finalize()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFinalizeMissingConfig(t *testing.T) {
	opts := &RootOptions{Config: "/nonexistent/config.yaml"}
	err := opts.finalize()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
