package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	cacheDir   string
	exportDir  string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("FIGFINDER_CACHE_DIR", "")
	t.Setenv("FIGFINDER_EXPORT_DIR", "")

	env := &cliTestEnv{
		baseDir:    base,
		cacheDir:   filepath.Join(base, "cache"),
		exportDir:  filepath.Join(base, "exports"),
		configPath: filepath.Join(homeDir, ".config", "figfinder", "config.toml"),
	}
	if err := os.MkdirAll(env.exportDir, 0o755); err != nil {
		t.Fatalf("mkdir exports: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(
		"[paths]\ncache_dir = %q\n\n[provider]\nexport_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		env.cacheDir,
		env.exportDir,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeExport(t *testing.T, id, body string) {
	t.Helper()
	path := filepath.Join(e.exportDir, id+"_parts.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write export %s: %v", id, err)
	}
}

func (e *cliTestEnv) writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
