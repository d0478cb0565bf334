package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modkit-dev/modkit/internal/xerrors"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Expected port %d, got %d", DefaultPort, cfg.Dev.Port)
	}
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Expected host %q, got %q", DefaultHost, cfg.Dev.Host)
	}
	if !cfg.HMREnabled() {
		t.Error("Expected HMR enabled by default")
	}
	if cfg.Build.Output != DefaultOutput {
		t.Errorf("Expected output %q, got %q", DefaultOutput, cfg.Build.Output)
	}
}

func TestLoadFile_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `{"name": "demo", "dev": {"port": 4000}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("Expected name demo, got %q", cfg.Name)
	}
	if cfg.Dev.Port != 4000 {
		t.Errorf("Expected port 4000, got %d", cfg.Dev.Port)
	}
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Expected default host, got %q", cfg.Dev.Host)
	}
	if cfg.Path() != path {
		t.Errorf("Expected config path recorded, got %q", cfg.Path())
	}
	if cfg.RootPath() != dir {
		t.Errorf("Expected root %q, got %q", dir, cfg.RootPath())
	}
}

func TestLoadFile_HMRDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"dev": {"hmr": false}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HMREnabled() {
		t.Error("Expected HMR disabled")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), ConfigFileName))
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	var structured *xerrors.Error
	if !errors.As(err, &structured) || structured.Code != "M100" {
		t.Errorf("Expected M100, got %v", err)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	var structured *xerrors.Error
	if !errors.As(err, &structured) || structured.Code != "M101" {
		t.Errorf("Expected M101, got %v", err)
	}
}

func TestDevAddress(t *testing.T) {
	cfg := New()
	cfg.Dev.Host = "0.0.0.0"
	cfg.Dev.Port = 8080
	if got := cfg.DevAddress(); got != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %q", got)
	}
	if got := cfg.DevURL(); got != "http://0.0.0.0:8080" {
		t.Errorf("Expected http URL, got %q", got)
	}
}
