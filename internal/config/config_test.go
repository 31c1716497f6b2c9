package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("NODEPLOT_CONFIG", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Engine.URL != "http://127.0.0.1:7878/evaluate" {
		t.Errorf("Engine.URL = %q", c.Engine.URL)
	}
	if c.Engine.Timeout != 30*time.Second {
		t.Errorf("Engine.Timeout = %v, want 30s", c.Engine.Timeout)
	}
	if c.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", c.Cache.TTL)
	}
	if want := filepath.Join(dir, "cache", "nodeplot"); c.Cache.Dir != want {
		t.Errorf("Cache.Dir = %q, want %q", c.Cache.Dir, want)
	}
	if c.Output.Indent != "  " {
		t.Errorf("Output.Indent = %q", c.Output.Indent)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "nodeplot")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	toml := "[engine]\nurl = \"http://engine:9000/eval\"\ntimeout = \"5s\"\n\n[server]\naddr = \":9090\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NODEPLOT_SERVER_ADDR", ":7000")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Engine.URL != "http://engine:9000/eval" || c.Engine.Timeout != 5*time.Second {
		t.Errorf("Engine = %+v, want file values", c.Engine)
	}
	if c.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want env override :7000", c.Server.Addr)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[output]\nindent = \"\\t\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NODEPLOT_CONFIG", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Output.Indent != "\t" {
		t.Errorf("Output.Indent = %q, want tab", c.Output.Indent)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	_ = os.WriteFile(path, []byte("[engine\nurl="), 0644)
	t.Setenv("NODEPLOT_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Error("Load() with malformed file should fail")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	t.Setenv("NODEPLOT_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
	if _, err := Load(); err != nil {
		t.Errorf("Load() with missing file error: %v", err)
	}
}
