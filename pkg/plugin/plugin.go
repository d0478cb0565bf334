// Package plugin defines the hook surface the dev server exposes to
// project plugins.
package plugin

import (
	"context"

	"github.com/modkit-dev/modkit/internal/graph"
)

// HotUpdateContext is passed to HandleHotUpdate hooks. Modules is the
// current affected-node set; hooks run in registration order and each
// sees the previous hook's output.
type HotUpdateContext struct {
	// File is the changed file's absolute path.
	File string

	// Timestamp is the shared HMR timestamp for this change.
	Timestamp int64

	// Modules are the graph nodes affected by the change so far.
	Modules []*graph.ModuleNode
}

// Plugin is a named set of optional hooks. A nil hook is skipped.
type Plugin struct {
	// Name identifies the plugin in logs and errors.
	Name string

	// HandleHotUpdate may replace the affected-node set for a file
	// change. Returning a nil or empty slice leaves the set unchanged.
	// Hooks are called strictly one at a time, never concurrently.
	HandleHotUpdate func(ctx context.Context, hot *HotUpdateContext) ([]*graph.ModuleNode, error)
}
