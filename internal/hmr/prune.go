package hmr

import (
	"github.com/modkit-dev/modkit/internal/graph"
)

// HandlePrunedModules notifies clients that modules left the graph. Every
// node gets one shared fresh timestamp so a later re-import of the same
// URL is not served from a stale client-side cache keyed by timestamp.
// Graph edges are not touched; disposal already happened in the graph.
func (o *Orchestrator) HandlePrunedModules(mods []*graph.ModuleNode) {
	if len(mods) == 0 {
		return
	}

	timestamp := o.now()
	paths := make([]string, 0, len(mods))
	o.Graph.Lock()
	for _, mod := range mods {
		mod.LastHMRTimestamp = timestamp
		paths = append(paths, mod.URL)
	}
	o.Graph.Unlock()

	o.log("pruned %d modules", len(paths))
	o.Transport.Send(Message{Type: MessagePrune, Paths: paths})
	if o.Metrics != nil {
		o.Metrics.PrunedModulesTotal.Add(float64(len(paths)))
	}
}
