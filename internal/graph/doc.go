// Package graph maintains the module dependency graph the dev server
// serves from: one node per served module URL, with forward import edges,
// reverse importer edges, per-node transform caches, and the hot-update
// bookkeeping (accepted dependencies, self-acceptance, HMR timestamps).
//
// The graph is the single owner of node lifecycle. Nodes appear when a URL
// is first requested or imported and disappear when their backing file is
// disposed; the hot-update core in internal/hmr only reads edges and stamps
// timestamps.
package graph
