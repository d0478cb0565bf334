package graph

import (
	"path"
	"strings"
	"sync"
)

// ModuleType labels what kind of update a module produces.
type ModuleType string

const (
	ModuleTypeJS  ModuleType = "js"
	ModuleTypeCSS ModuleType = "css"
)

// TransformResult is the cached compiled output for a module.
type TransformResult struct {
	Code string
	Etag string
}

// ModuleNode is one resolved, hot-update-tracked unit, keyed by URL.
// Several nodes may share the same file (query-suffixed variants).
type ModuleNode struct {
	// URL is the root-relative, slash-normalized module URL.
	URL string

	// File is the absolute file path backing this module.
	File string

	// Type labels the emitted update record (js or css).
	Type ModuleType

	// IsSelfAccepting is set when the module declares it can hot-swap
	// itself without notifying importers.
	IsSelfAccepting bool

	// AcceptedHmrDeps are dependencies this module explicitly handles
	// hot updates for.
	AcceptedHmrDeps map[*ModuleNode]struct{}

	// Importers are reverse edges: every node whose ImportedModules
	// contains this node.
	Importers map[*ModuleNode]struct{}

	// ImportedModules are forward edges discovered during transform.
	ImportedModules map[*ModuleNode]struct{}

	// LastHMRTimestamp is a monotonically assigned stamp clients use to
	// cache-bust re-imports.
	LastHMRTimestamp int64

	// TransformResult is the cached transform output; cleared whenever
	// an update walk touches this node.
	TransformResult *TransformResult
}

func newModuleNode(url, file string) *ModuleNode {
	return &ModuleNode{
		URL:             url,
		File:            file,
		Type:            typeForURL(url),
		AcceptedHmrDeps: make(map[*ModuleNode]struct{}),
		Importers:       make(map[*ModuleNode]struct{}),
		ImportedModules: make(map[*ModuleNode]struct{}),
	}
}

func typeForURL(url string) ModuleType {
	switch strings.ToLower(path.Ext(CleanURL(url))) {
	case ".css", ".scss", ".sass", ".less":
		return ModuleTypeCSS
	default:
		return ModuleTypeJS
	}
}

// CleanURL strips the cache-busting query from a module URL.
func CleanURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// ModuleGraph owns every ModuleNode. Nodes are created and destroyed here,
// never by the hot-update core, which only stamps timestamps and clears
// transform caches.
type ModuleGraph struct {
	mu            sync.RWMutex
	urlToModule   map[string]*ModuleNode
	fileToModules map[string][]*ModuleNode
	resolveFile   func(url string) string
}

// NewModuleGraph creates an empty module graph. resolveFile maps a clean
// module URL to the absolute file path backing it.
func NewModuleGraph(resolveFile func(url string) string) *ModuleGraph {
	return &ModuleGraph{
		urlToModule:   make(map[string]*ModuleNode),
		fileToModules: make(map[string][]*ModuleNode),
		resolveFile:   resolveFile,
	}
}

// GetModuleByURL returns the node registered for a URL, or nil.
func (g *ModuleGraph) GetModuleByURL(url string) *ModuleNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.urlToModule[url]
}

// GetModulesByFile returns every node backed by the given file, in
// registration order. Returns nil when the file has no nodes.
func (g *ModuleGraph) GetModulesByFile(file string) []*ModuleNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mods := g.fileToModules[file]
	if len(mods) == 0 {
		return nil
	}
	out := make([]*ModuleNode, len(mods))
	copy(out, mods)
	return out
}

// EnsureEntry returns the node for a URL, creating it on first sight.
// Query-suffixed variants of the same file become distinct nodes sharing
// one file entry.
func (g *ModuleGraph) EnsureEntry(url string) *ModuleNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensureEntryLocked(url)
}

func (g *ModuleGraph) ensureEntryLocked(url string) *ModuleNode {
	if node, ok := g.urlToModule[url]; ok {
		return node
	}
	file := CleanURL(url)
	if g.resolveFile != nil {
		file = g.resolveFile(CleanURL(url))
	}
	node := newModuleNode(url, file)
	g.urlToModule[url] = node
	g.fileToModules[file] = append(g.fileToModules[file], node)
	return node
}

// UpdateModuleInfo rewires a node's forward and reverse edges after a
// transform, and returns formerly imported nodes that no longer have any
// importer. The caller decides whether those become prune notifications.
func (g *ModuleGraph) UpdateModuleInfo(node *ModuleNode, importedURLs, acceptedURLs []string, isSelfAccepting bool) []*ModuleNode {
	g.mu.Lock()
	defer g.mu.Unlock()

	node.IsSelfAccepting = isSelfAccepting

	prevImports := node.ImportedModules
	node.ImportedModules = make(map[*ModuleNode]struct{}, len(importedURLs))
	for _, url := range importedURLs {
		dep := g.ensureEntryLocked(url)
		node.ImportedModules[dep] = struct{}{}
		dep.Importers[node] = struct{}{}
	}

	node.AcceptedHmrDeps = make(map[*ModuleNode]struct{}, len(acceptedURLs))
	for _, url := range acceptedURLs {
		dep := g.ensureEntryLocked(url)
		node.AcceptedHmrDeps[dep] = struct{}{}
	}

	var orphans []*ModuleNode
	for dep := range prevImports {
		if _, still := node.ImportedModules[dep]; still {
			continue
		}
		delete(dep.Importers, node)
		if len(dep.Importers) == 0 {
			orphans = append(orphans, dep)
		}
	}
	return orphans
}

// Invalidate clears a node's transform cache.
func (g *ModuleGraph) Invalidate(node *ModuleNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node.TransformResult = nil
}

// Lock takes the graph's write lock. The hot-update walk holds it for a
// whole propagation batch so request goroutines cannot rewire importer or
// accepted-dep edges mid-walk; holders may read and write node state
// directly until Unlock.
func (g *ModuleGraph) Lock() { g.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (g *ModuleGraph) Unlock() { g.mu.Unlock() }

// CachedResult returns the node's transform cache, or nil when an update
// walk has cleared it.
func (g *ModuleGraph) CachedResult(node *ModuleNode) *TransformResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return node.TransformResult
}

// SetTransformResult stores a node's transform output.
func (g *ModuleGraph) SetTransformResult(node *ModuleNode, result *TransformResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node.TransformResult = result
}

// Timestamp returns the node's last hot-update stamp.
func (g *ModuleGraph) Timestamp(node *ModuleNode) int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return node.LastHMRTimestamp
}

// DisposeFile removes every node backed by a file, detaching all edges.
// Returns the removed nodes in registration order.
func (g *ModuleGraph) DisposeFile(file string) []*ModuleNode {
	g.mu.Lock()
	defer g.mu.Unlock()

	mods := g.fileToModules[file]
	if len(mods) == 0 {
		return nil
	}
	delete(g.fileToModules, file)

	for _, node := range mods {
		delete(g.urlToModule, node.URL)
		for dep := range node.ImportedModules {
			delete(dep.Importers, node)
		}
		for imp := range node.Importers {
			delete(imp.ImportedModules, node)
		}
	}
	return mods
}
