package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artpar/construct/core/artifact"
	"github.com/artpar/construct/core/runtime"
)

const nodeRuntime = `construct_runtime!(
	pub enum Runtime where
		Block = Block,
		NodeBlock = opaque::Block,
		UncheckedExtrinsic = UncheckedExtrinsic
	{
		System: system::{Module, Call, Storage, Config, Event},
		Timestamp: timestamp::{Module, Call, Storage, Inherent},
		Balances: balances,
	}
);`

const missingSystem = `pub enum Runtime where Block = Block, NodeBlock = opaque::Block, UncheckedExtrinsic = UncheckedExtrinsic {
	Balances: balances,
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// run executes the root command with fresh flag state.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cfgFile, logLevel, outFormat = "", "", ""
	compileOut, compileDir, compileCompact, compileOnly = "", "", false, nil
	normalizeCanonical = false
	buildsRuntime, buildsOffset = "", 0
	simulateBlocks = runtime.DefaultSimulatedBlocks

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func quietConfig(t *testing.T, dir string) string {
	return writeFile(t, dir, "construct.yaml", "logging:\n  level: error\n")
}

// -----------------------------------------------------------------------------
// compile
// -----------------------------------------------------------------------------

func TestCompile_JSONOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "node.runtime", nodeRuntime)

	out, _, err := run(t, "compile", decl, "--config", cfg, "-f", "json", "--only", "event,call")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	var parts map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &parts); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(parts) != 2 || parts["event"] == nil || parts["call"] == nil {
		t.Errorf("artifacts = %v, want event and call", keys(parts))
	}
}

func TestCompile_Dir(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "node.runtime", nodeRuntime)
	outDir := filepath.Join(dir, "out")

	if _, _, err := run(t, "compile", decl, "--config", cfg, "-f", "yaml", "--dir", outDir); err != nil {
		t.Fatalf("compile error: %v", err)
	}

	for _, name := range artifact.Names {
		if _, err := os.Stat(filepath.Join(outDir, name+".yaml")); err != nil {
			t.Errorf("artifact file %s.yaml: %v", name, err)
		}
	}
}

func TestCompile_AssemblyError(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "bad.runtime", missingSystem)

	_, stderr, err := run(t, "compile", decl, "--config", cfg)
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
	if !strings.Contains(stderr, "Error:") {
		t.Errorf("stderr = %q, want formatted error", stderr)
	}
}

func TestCompile_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "node.runtime", nodeRuntime)

	_, _, err := run(t, "compile", decl, "--config", cfg, "-f", "toml")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("error = %v, want unknown output format", err)
	}
}

// -----------------------------------------------------------------------------
// normalize / validate
// -----------------------------------------------------------------------------

func TestNormalize_Canonical(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "node.runtime", nodeRuntime)

	out, _, err := run(t, "normalize", decl, "--config", cfg, "--canonical")
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if !strings.Contains(out, "Balances: balances::{") {
		t.Errorf("canonical form should expand default capabilities:\n%s", out)
	}
}

func TestValidate_Declarations(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	good := writeFile(t, dir, "good.runtime", nodeRuntime)
	bad := writeFile(t, dir, "bad.runtime", missingSystem)

	out, _, err := run(t, "validate", good, "--config", cfg)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if !strings.Contains(out, "runtime Runtime, 3 modules") {
		t.Errorf("output = %q", out)
	}

	out, _, err = run(t, "validate", good, bad, "--config", cfg)
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
	if !strings.Contains(out, "1 of 2 declarations invalid") {
		t.Errorf("output = %q", out)
	}
}

func TestValidate_Directory(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	runtimes := filepath.Join(dir, "runtimes")
	if err := os.Mkdir(runtimes, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, runtimes, "a.runtime", nodeRuntime)
	writeFile(t, runtimes, "b.runtime", missingSystem)
	writeFile(t, runtimes, "README.md", "not a declaration")

	out, _, err := run(t, "validate", runtimes, "--config", cfg)
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
	if !strings.Contains(out, "1 of 2 declarations invalid") {
		t.Errorf("output = %q", out)
	}

	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "validate", empty, "--config", cfg); err == nil {
		t.Error("expected error for directory without declarations")
	}
}

// -----------------------------------------------------------------------------
// simulate
// -----------------------------------------------------------------------------

func TestSimulate_JSON(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "node.runtime", nodeRuntime)

	out, _, err := run(t, "simulate", decl, "--config", cfg, "-f", "json", "--blocks", "2")
	if err != nil {
		t.Fatalf("simulate error: %v", err)
	}

	var report runtime.SimulationReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if report.Runtime != "Runtime" {
		t.Errorf("runtime = %q, want Runtime", report.Runtime)
	}
	if len(report.Blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(report.Blocks))
	}
	// Timestamp is call variant 1 and its payload is the block number.
	if got := report.Blocks[0].Extrinsics; len(got) != 1 || got[0] != "0131" {
		t.Errorf("block 1 extrinsics = %v, want [0131]", got)
	}
	if len(report.HookOrder) == 0 || report.HookOrder[0] != "System" {
		t.Errorf("hook order = %v, want System first", report.HookOrder)
	}
}

func TestSimulate_FailedBlock(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "node.runtime", `pub enum Runtime where Block = Block, NodeBlock = opaque::Block, UncheckedExtrinsic = UncheckedExtrinsic {
	System: system::{Module, Call},
	Timestamp: timestamp::{Module, Inherent},
}`)

	out, _, err := run(t, "simulate", decl, "--config", cfg, "--blocks", "1")
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
	if !strings.Contains(out, "block #1: extrinsic 0") {
		t.Errorf("output missing failed block:\n%s", out)
	}
	if !strings.Contains(out, "no unsigned validator") {
		t.Errorf("output missing unsigned verdicts:\n%s", out)
	}
}

func TestSimulate_AssemblyError(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)
	decl := writeFile(t, dir, "bad.runtime", missingSystem)

	if _, _, err := run(t, "simulate", decl, "--config", cfg); err == nil {
		t.Fatal("expected error for a declaration without System")
	}
}

func TestValidate_Config(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)

	out, _, err := run(t, "validate", "--config", cfg)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if !strings.Contains(out, "Config valid") {
		t.Errorf("output = %q", out)
	}

	if _, _, err := run(t, "validate", "--config", filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

// -----------------------------------------------------------------------------
// builds
// -----------------------------------------------------------------------------

func TestBuilds_ListAndShow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "builds.db")
	cfg := writeFile(t, dir, "construct.yaml",
		"logging:\n  level: error\nstorage:\n  enabled: true\n  dsn: "+db+"\n")
	decl := writeFile(t, dir, "node.runtime", nodeRuntime)

	if _, _, err := run(t, "compile", decl, "--config", cfg, "-f", "json"); err != nil {
		t.Fatalf("compile error: %v", err)
	}

	out, _, err := run(t, "builds", "list", "--config", cfg, "-f", "json")
	if err != nil {
		t.Fatalf("builds list error: %v", err)
	}
	var listed struct {
		Builds []struct {
			ID      string `json:"id"`
			Runtime string `json:"runtime"`
			Source  string `json:"source"`
		} `json:"builds"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if listed.Total != 1 || len(listed.Builds) != 1 {
		t.Fatalf("listed = %+v, want one build", listed)
	}
	if listed.Builds[0].Runtime != "Runtime" || listed.Builds[0].Source != "node.runtime" {
		t.Errorf("build = %+v", listed.Builds[0])
	}

	out, _, err = run(t, "builds", "show", listed.Builds[0].ID, "--config", cfg)
	if err != nil {
		t.Fatalf("builds show error: %v", err)
	}
	if !strings.Contains(out, "Runtime:     Runtime") || !strings.Contains(out, `"event"`) {
		t.Errorf("show output = %q", out)
	}

	if _, _, err := run(t, "builds", "show", "missing", "--config", cfg); err == nil {
		t.Error("expected error for missing build")
	}
}

func TestBuilds_HistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig(t, dir)

	_, _, err := run(t, "builds", "list", "--config", cfg)
	if !errors.Is(err, errHistoryDisabled) {
		t.Errorf("error = %v, want errHistoryDisabled", err)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "construct dev") {
		t.Errorf("output = %q", out)
	}
}

func keys(m map[string]json.RawMessage) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
