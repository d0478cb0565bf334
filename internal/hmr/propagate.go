package hmr

import (
	"github.com/modkit-dev/modkit/internal/graph"
)

// Boundary is a module whose update must reach the client, paired with
// the dependency edge through which it was absorbed. Two boundaries may
// share the same module via different edges; both are kept, since the
// client needs the acceptance path of each.
type Boundary struct {
	Module      *graph.ModuleNode
	AcceptedVia *graph.ModuleNode
}

// propagateUpdate walks upward over importer edges from a changed module,
// collecting update boundaries into boundaries. It returns true when any
// branch reaches a dead end (a module with no importers and no
// self-acceptance): a full reload supersedes any partial update, so the
// caller must discard boundaries already collected once this reports true.
//
// Every node on a successful path has its transform cache cleared and its
// HMR timestamp stamped. Re-stamping a node with the same timestamp via a
// second path is expected and idempotent.
func propagateUpdate(node *graph.ModuleNode, timestamp int64, boundaries *[]Boundary, chain []*graph.ModuleNode) bool {
	if node.IsSelfAccepting {
		*boundaries = append(*boundaries, Boundary{Module: node, AcceptedVia: node})
		invalidateChain(chain, timestamp)
		return false
	}

	if len(node.Importers) == 0 {
		return true
	}

	for importer := range node.Importers {
		if _, accepted := importer.AcceptedHmrDeps[node]; accepted {
			*boundaries = append(*boundaries, Boundary{Module: importer, AcceptedVia: node})
			invalidateChain(append(chain, importer), timestamp)
			continue
		}

		if chainContains(chain, importer) {
			// Cycle back onto the current path.
			continue
		}

		if propagateUpdate(importer, timestamp, boundaries, append(chain, importer)) {
			return true
		}
	}

	return false
}

// invalidateChain stamps and clears every node on an accepted path so the
// next request re-transforms it and clients re-import with a fresh query.
func invalidateChain(chain []*graph.ModuleNode, timestamp int64) {
	for _, node := range chain {
		node.LastHMRTimestamp = timestamp
		node.TransformResult = nil
	}
}

// chainContains reports whether node is already on the current walk path.
// A linear scan is enough: import chains are short. An identity-keyed set
// would behave the same for very wide graphs.
func chainContains(chain []*graph.ModuleNode, node *graph.ModuleNode) bool {
	for _, n := range chain {
		if n == node {
			return true
		}
	}
	return false
}
