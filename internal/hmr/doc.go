// Package hmr implements hot-module-replacement decision logic for the
// dev server: given one changed file it determines which already-loaded
// modules can absorb the change in place, which must force a full page
// reload, and emits the minimal ordered set of update notifications over
// the websocket transport.
//
// The three moving parts are the Orchestrator (per-file-change
// coordinator), the boundary propagation walk over importer edges, and a
// narrow incremental lexer that extracts the literal dependency list from
// a module's hot-accept declaration without a full-syntax parse.
//
// All entry points assume serialized invocation; see Orchestrator.
package hmr
