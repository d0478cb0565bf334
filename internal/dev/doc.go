// Package dev provides the development server and its hot-module-
// replacement plumbing.
//
// This package implements:
//   - File watching with debounce and ignore globs
//   - A module transform pipeline (import rewriting, hot-accept
//     extraction, CSS-to-JS shims) feeding the module graph
//   - HTML serving with client runtime injection and module script
//     extraction
//   - The HTTP server wiring: module serving, the HMR websocket
//     endpoint, the client runtime, and Prometheus metrics
//
// # Architecture
//
//   - Watcher: polls the project root for changes
//   - Transformer: turns sources into servable modules and keeps the
//     graph's edges current
//   - Server: serves pages and modules, and drains watcher events on a
//     single goroutine into the hot-update orchestrator
//
// The hot-update decision logic itself lives in internal/hmr; this
// package only hosts it.
//
// Import rewriting is heuristic (regex over source text), which is
// sufficient for dev serving; bare specifiers are left to the page's
// import map.
package dev
