package dev

import (
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/modkit-dev/modkit/internal/graph"
	"github.com/modkit-dev/modkit/internal/hmr"
	"github.com/modkit-dev/modkit/internal/xerrors"
)

// hotAcceptMarker is the call prefix the accepted-deps lexer scans after.
const hotAcceptMarker = "import.meta.hot.accept("

var (
	// from '...' / from "..." in static imports and re-exports.
	importFromRE = regexp.MustCompile(`\bfrom\s*(['"])([^'"]+)(['"])`)

	// Side-effect imports: import '...'.
	importBareRE = regexp.MustCompile(`\bimport\s*(['"])([^'"]+)(['"])`)

	// Dynamic imports: import('...').
	importDynamicRE = regexp.MustCompile(`\bimport\(\s*(['"])([^'"]+)(['"])\s*\)`)
)

// Transformer turns on-disk sources into servable module code and keeps
// the module graph's edges and hot-accept metadata in sync. Results are
// cached on the node; the hot-update walk clears the cache for touched
// nodes, so a stale result is never served after an update.
type Transformer struct {
	Graph *graph.ModuleGraph
}

// TransformModule returns servable code for a module node, computing and
// caching it when the node has no valid cached result. The returned
// orphans are formerly imported nodes that lost their last importer; the
// caller decides whether they become prune notifications.
func (t *Transformer) TransformModule(node *graph.ModuleNode) (*graph.TransformResult, []*graph.ModuleNode, error) {
	if cached := t.Graph.CachedResult(node); cached != nil {
		return cached, nil, nil
	}

	src, err := os.ReadFile(node.File)
	if err != nil {
		return nil, nil, xerrors.New("M200").WithFile(node.File).Wrap(err)
	}

	var result *graph.TransformResult
	var orphans []*graph.ModuleNode

	switch node.Type {
	case graph.ModuleTypeCSS:
		result = t.transformCSS(node, string(src))
		orphans = t.Graph.UpdateModuleInfo(node, nil, nil, true)
	default:
		var transformErr error
		result, orphans, transformErr = t.transformJS(node, string(src))
		if transformErr != nil {
			return nil, nil, transformErr
		}
	}

	t.Graph.SetTransformResult(node, result)
	return result, orphans, nil
}

// transformJS rewrites relative import specifiers to root-relative URLs
// with cache-busting queries, wires graph edges, and extracts hot-accept
// metadata through the accepted-deps lexer.
func (t *Transformer) transformJS(node *graph.ModuleNode, src string) (*graph.TransformResult, []*graph.ModuleNode, error) {
	selfAccepting, acceptedURLs, err := t.scanHotAccepts(node, src)
	if err != nil {
		return nil, nil, err
	}

	var importedURLs []string
	code := rewriteImports(src, func(spec string) string {
		url, ok := resolveSpecifier(node.URL, spec)
		if !ok {
			return spec
		}
		importedURLs = append(importedURLs, url)
		if dep := t.Graph.GetModuleByURL(url); dep != nil {
			if ts := t.Graph.Timestamp(dep); ts > 0 {
				return fmt.Sprintf("%s?t=%d", url, ts)
			}
		}
		return url
	})

	if strings.Contains(code, "import.meta.hot") {
		code = hotContextPreamble(node.URL) + code
	}

	orphans := t.Graph.UpdateModuleInfo(node, importedURLs, acceptedURLs, selfAccepting)

	return &graph.TransformResult{Code: code, Etag: etagFor(code)}, orphans, nil
}

// scanHotAccepts runs the accepted-deps lexer after every hot-accept call
// site. Lexer parse failures fail the whole transform; the server turns
// that into an error response for the requesting client.
func (t *Transformer) scanHotAccepts(node *graph.ModuleNode, src string) (bool, []string, error) {
	selfAccepting := false
	var acceptedURLs []string

	offset := 0
	for {
		i := strings.Index(src[offset:], hotAcceptMarker)
		if i < 0 {
			break
		}
		argStart := offset + i + len(hotAcceptMarker)

		var deps []string
		selfAccepts, err := hmr.LexAcceptedDeps(src, argStart, &deps)
		if err != nil {
			var structured *xerrors.Error
			if errors.As(err, &structured) {
				structured.WithFile(node.File)
			}
			return false, nil, err
		}
		if selfAccepts {
			selfAccepting = true
		}
		for _, dep := range deps {
			if url, ok := resolveSpecifier(node.URL, dep); ok {
				acceptedURLs = append(acceptedURLs, url)
			} else {
				acceptedURLs = append(acceptedURLs, dep)
			}
		}

		offset = argStart
	}

	return selfAccepting, acceptedURLs, nil
}

// transformCSS wraps a stylesheet in a JS shim that installs the style
// tag and self-accepts hot updates, so style changes swap in place.
func (t *Transformer) transformCSS(node *graph.ModuleNode, src string) *graph.TransformResult {
	encoded, _ := json.Marshal(src)
	id, _ := json.Marshal(node.URL)

	var b strings.Builder
	b.WriteString(hotContextPreamble(node.URL))
	b.WriteString("const css = ")
	b.Write(encoded)
	b.WriteString(";\nconst id = ")
	b.Write(id)
	b.WriteString(";\nlet style = document.querySelector('style[data-modkit-id=' + JSON.stringify(id) + ']');\n")
	b.WriteString("if (!style) {\n")
	b.WriteString("    style = document.createElement('style');\n")
	b.WriteString("    style.setAttribute('data-modkit-id', id);\n")
	b.WriteString("    document.head.appendChild(style);\n")
	b.WriteString("}\n")
	b.WriteString("style.textContent = css;\n")
	b.WriteString("import.meta.hot.accept();\n")
	b.WriteString("export default css;\n")

	code := b.String()
	return &graph.TransformResult{Code: code, Etag: etagFor(code)}
}

// hotContextPreamble gives a module its import.meta.hot implementation.
func hotContextPreamble(url string) string {
	encoded, _ := json.Marshal(url)
	return fmt.Sprintf("import { createHotContext as __modkit_createHotContext } from \"/@modkit/client\";\nimport.meta.hot = __modkit_createHotContext(%s);\n", encoded)
}

// rewriteImports applies rewrite to every static, side-effect, and
// dynamic import specifier in src.
func rewriteImports(src string, rewrite func(spec string) string) string {
	replaceSpec := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(match string) string {
			groups := re.FindStringSubmatch(match)
			rewritten := rewrite(groups[2])
			return strings.Replace(match, groups[1]+groups[2]+groups[3], groups[1]+rewritten+groups[3], 1)
		})
	}

	src = replaceSpec(importFromRE, src)
	src = replaceSpec(importDynamicRE, src)
	src = replaceSpec(importBareRE, src)
	return src
}

// resolveSpecifier resolves a relative import specifier against the
// importing module's URL. Root-relative specifiers pass through; bare
// specifiers (package names) are left for the page's import map.
func resolveSpecifier(ownerURL, spec string) (string, bool) {
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		dir := path.Dir(graph.CleanURL(ownerURL))
		return path.Clean(path.Join(dir, spec)), true
	case strings.HasPrefix(spec, "/"):
		return graph.CleanURL(spec), true
	default:
		return "", false
	}
}

func etagFor(code string) string {
	sum := sha1.Sum([]byte(code))
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}
