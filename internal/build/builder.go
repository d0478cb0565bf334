package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/modkit-dev/modkit/internal/config"
	"github.com/modkit-dev/modkit/internal/xerrors"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Output is the path to the output directory.
	Output string

	// Manifest maps source-relative paths to their emitted names.
	Manifest map[string]string

	// Files is the number of emitted files.
	Files int

	// TotalSize is the combined size of the emitted files in bytes.
	TotalSize int64
}

// Options configures the builder.
type Options struct {
	// Minify enables whitespace minification of JS and CSS output.
	Minify bool

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// skipDirs are directories never copied into a build.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".modkit":      true,
}

var (
	importFromRE    = regexp.MustCompile(`\bfrom\s*(['"])([^'"]+)(['"])`)
	importBareRE    = regexp.MustCompile(`\bimport\s*(['"])([^'"]+)(['"])`)
	importDynamicRE = regexp.MustCompile(`\bimport\(\s*(['"])([^'"]+)(['"])\s*\)`)
)

// Builder produces a deployable copy of the project: modules with
// relative imports rewritten to root-relative URLs, js and css emitted
// under content-hashed names, and pages rewritten to reference them.
type Builder struct {
	config  *config.Config
	options Options
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	if !options.Minify && cfg.Build.Minify {
		options.Minify = true
	}
	return &Builder{
		config:  cfg,
		options: options,
	}
}

// Build performs a production build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	root := b.config.RootPath()
	outputDir := b.config.OutputPath()

	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, xerrors.New("M400").Wrap(err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, xerrors.New("M400").Wrap(err)
	}

	b.progress("Collecting sources...")
	sources, err := b.collectSources(root, outputDir)
	if err != nil {
		return nil, err
	}

	// First pass: load and preprocess everything, decide output names.
	b.progress("Transforming modules...")
	manifest := make(map[string]string, len(sources))
	contents := make(map[string][]byte, len(sources))
	for _, rel := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, xerrors.New("M400").WithFile(rel).Wrap(err)
		}

		out := rel
		switch strings.ToLower(path.Ext(rel)) {
		case ".js", ".mjs":
			data = []byte(rewriteModuleImports(rel, string(data)))
			if b.options.Minify {
				data = minifyWhitespace(data)
			}
			out = hashedName(rel, data)
		case ".css":
			if b.options.Minify {
				data = minifyWhitespace(data)
			}
			out = hashedName(rel, data)
		}

		manifest[rel] = out
		contents[rel] = data
	}

	// Second pass: rewrite references to hashed names, then emit.
	b.progress("Writing output...")
	result := &Result{
		Output:   outputDir,
		Manifest: manifest,
	}
	for rel, data := range contents {
		switch strings.ToLower(path.Ext(rel)) {
		case ".js", ".mjs", ".html":
			data = rewriteReferences(data, manifest)
		}

		dest := filepath.Join(outputDir, filepath.FromSlash(manifest[rel]))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, xerrors.New("M400").Wrap(err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return nil, xerrors.New("M400").WithFile(dest).Wrap(err)
		}
		result.Files++
		result.TotalSize += int64(len(data))
	}

	b.progress("Writing manifest...")
	if err := b.writeManifest(outputDir, manifest); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

// collectSources lists project files relative to root, skipping the
// output directory, the config file, and the usual junk directories.
func (b *Builder) collectSources(root, outputDir string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == outputDir || skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == config.ConfigFileName {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, xerrors.New("M400").Wrap(err)
	}
	sort.Strings(sources)
	return sources, nil
}

// rewriteModuleImports turns relative import specifiers into
// root-relative URLs so hashed-name rewriting can find them.
func rewriteModuleImports(rel, src string) string {
	ownerURL := "/" + rel
	replaceSpec := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(match string) string {
			groups := re.FindStringSubmatch(match)
			spec := groups[2]
			if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
				return match
			}
			resolved := path.Clean(path.Join(path.Dir(ownerURL), spec))
			return strings.Replace(match, groups[1]+spec+groups[3], groups[1]+resolved+groups[3], 1)
		})
	}

	src = replaceSpec(importFromRE, src)
	src = replaceSpec(importDynamicRE, src)
	src = replaceSpec(importBareRE, src)
	return src
}

// rewriteReferences replaces root-relative URLs of renamed files with
// their hashed output URLs. Longer paths are replaced first so a path
// that prefixes another never clobbers it.
func rewriteReferences(data []byte, manifest map[string]string) []byte {
	renamed := make([]string, 0, len(manifest))
	for rel, out := range manifest {
		if rel != out {
			renamed = append(renamed, rel)
		}
	}
	sort.Slice(renamed, func(i, j int) bool {
		if len(renamed[i]) != len(renamed[j]) {
			return len(renamed[i]) > len(renamed[j])
		}
		return renamed[i] < renamed[j]
	})

	s := string(data)
	for _, rel := range renamed {
		s = strings.ReplaceAll(s, "/"+rel, "/"+manifest[rel])
	}
	return []byte(s)
}

// minifyWhitespace drops blank lines and trailing whitespace. It never
// touches content inside a line, so strings and template literals stay
// intact.
func minifyWhitespace(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return []byte(strings.Join(out, "\n") + "\n")
}

// hashedName returns the content-addressed output name for a file,
// keeping its directory and extension.
func hashedName(rel string, data []byte) string {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])[:8]
	ext := path.Ext(rel)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(rel, ext), hash, ext)
}

// writeManifest writes the asset manifest.
func (b *Builder) writeManifest(outputDir string, manifest map[string]string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "manifest.json"), data, 0644)
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.OutputPath())
}
