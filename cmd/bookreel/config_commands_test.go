package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "-p", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output does not name target: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "-p", target); err == nil {
		t.Error("second init without --overwrite should fail")
	}
	if _, err := runCommand(t, "config", "init", "-p", target, "--overwrite"); err != nil {
		t.Errorf("init with --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "bookreel.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
output_dir = %q
log_dir = %q
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "output"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "-c", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(base, "data")); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "bookreel.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
output_dir = %q
log_dir = %q

[cache]
enabled = false
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "output"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "-c", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "cache.enabled") {
		t.Errorf("output missing cache setting:\n%s", out)
	}
}
