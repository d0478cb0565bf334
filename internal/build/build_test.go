package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modkit-dev/modkit/internal/config"
)

func newTestProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, config.ConfigFileName), []byte(`{"name": "test-app"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputPath(), filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestBuild(t *testing.T) {
	cfg := newTestProject(t, map[string]string{
		"index.html":  `<html><body><script type="module" src="/src/main.js"></script></body></html>`,
		"src/main.js": "import { util } from './util.js'\nconsole.log(util)\n",
		"src/util.js": "export const util = 1\n",
		"logo.svg":    "<svg></svg>",
	})

	result, err := New(cfg, Options{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Files != 4 {
		t.Errorf("Expected 4 emitted files, got %d", result.Files)
	}

	mainOut := result.Manifest["src/main.js"]
	if mainOut == "src/main.js" || !strings.HasPrefix(mainOut, "src/main.") || !strings.HasSuffix(mainOut, ".js") {
		t.Errorf("Expected hashed output name for main.js, got %q", mainOut)
	}
	if result.Manifest["logo.svg"] != "logo.svg" {
		t.Errorf("Expected static asset kept as-is, got %q", result.Manifest["logo.svg"])
	}
	if result.Manifest["index.html"] != "index.html" {
		t.Errorf("Expected html kept as-is, got %q", result.Manifest["index.html"])
	}

	// Pages reference the hashed module name.
	page := readOutput(t, cfg, "index.html")
	if !strings.Contains(page, "/"+mainOut) {
		t.Errorf("Expected page rewritten to %q:\n%s", mainOut, page)
	}

	// Modules import the hashed name of their deps, root-relatively.
	utilOut := result.Manifest["src/util.js"]
	mainCode := readOutput(t, cfg, mainOut)
	if !strings.Contains(mainCode, "'/"+utilOut+"'") {
		t.Errorf("Expected import rewritten to %q:\n%s", utilOut, mainCode)
	}

	// The config file never ships.
	if _, err := os.Stat(filepath.Join(cfg.OutputPath(), config.ConfigFileName)); !os.IsNotExist(err) {
		t.Error("Expected config file excluded from output")
	}

	// The manifest is written and matches the result.
	var onDisk map[string]string
	data := readOutput(t, cfg, "manifest.json")
	if err := json.Unmarshal([]byte(data), &onDisk); err != nil {
		t.Fatal(err)
	}
	if onDisk["src/main.js"] != mainOut {
		t.Errorf("Expected manifest.json to match result, got %v", onDisk)
	}
}

func TestBuild_Minify(t *testing.T) {
	cfg := newTestProject(t, map[string]string{
		"app.js": "const a = 1\n\n\nconst b = 2   \nexport default a + b\n",
	})
	cfg.Build.Minify = true

	result, err := New(cfg, Options{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	code := readOutput(t, cfg, result.Manifest["app.js"])
	if strings.Contains(code, "\n\n") {
		t.Errorf("Expected blank lines dropped:\n%q", code)
	}
	if strings.Contains(code, "2   ") {
		t.Error("Expected trailing whitespace trimmed")
	}
}

func TestBuild_SkipsOutputAndJunkDirs(t *testing.T) {
	cfg := newTestProject(t, map[string]string{
		"app.js":                "export default 1\n",
		"node_modules/dep.js":   "ignored",
		".git/config":           "ignored",
		"dist/stale.js":         "ignored",
		".modkit/client.js":     "ignored",
		"assets/fonts/font.txt": "kept",
	})

	result, err := New(cfg, Options{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for rel := range result.Manifest {
		if strings.HasPrefix(rel, "node_modules/") || strings.HasPrefix(rel, ".git/") ||
			strings.HasPrefix(rel, "dist/") || strings.HasPrefix(rel, ".modkit/") {
			t.Errorf("Expected %q excluded from build", rel)
		}
	}
	if _, ok := result.Manifest["assets/fonts/font.txt"]; !ok {
		t.Error("Expected nested asset included")
	}
}

func TestBuild_HashChangesWithContent(t *testing.T) {
	files := map[string]string{"app.js": "export default 1\n"}
	cfg := newTestProject(t, files)

	first, err := New(cfg, Options{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(cfg.RootPath(), "app.js"), []byte("export default 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := New(cfg, Options{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first.Manifest["app.js"] == second.Manifest["app.js"] {
		t.Error("Expected output name to change with content")
	}
}

func TestClean(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"app.js": "export default 1\n"})

	b := New(cfg, Options{})
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Clean(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cfg.OutputPath()); !os.IsNotExist(err) {
		t.Error("Expected output directory removed")
	}
}
