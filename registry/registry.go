// Package registry provides an in-memory stand-in for the node topology
// providers of a real prompting network. It keeps no persistent state and
// does no network I/O: nodes are registered into a table and exposed as an
// ordered, read-only target list for dispatch.
package registry

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/minopeef/prompting/protocol"
)

// DefaultAddress is the loopback address assigned to simulated nodes.
const DefaultAddress = "127.0.0.1:8091"

// OrchestratorUID is the uid reserved for the node issuing dispatches. It
// never appears in Targets.
const OrchestratorUID = 0

// Registry is an in-memory node table. UIDs are assigned sequentially in
// registration order.
type Registry struct {
	mu     sync.RWMutex
	nodes  []protocol.Endpoint
	logger *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// NewNetwork builds the conventional simulated topology: the orchestrator
// at uid 0 plus n serving nodes at uids 1..n, all on loopback.
func NewNetwork(n int, logger *zap.Logger) *Registry {
	r := New(logger)
	r.Register("orchestrator-hotkey", DefaultAddress)
	for i := 1; i <= n; i++ {
		r.Register(fmt.Sprintf("node-hotkey-%d", i), DefaultAddress)
	}
	return r
}

// Register adds a node and returns its descriptor with the assigned uid.
func (r *Registry) Register(hotkey, address string) protocol.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep := protocol.Endpoint{
		UID:     len(r.nodes),
		Hotkey:  hotkey,
		Address: address,
	}
	r.nodes = append(r.nodes, ep)
	r.logger.Debug("node registered",
		zap.Int("uid", ep.UID),
		zap.String("hotkey", ep.Hotkey),
		zap.String("address", ep.Address),
	)
	return ep
}

// Len returns the number of registered nodes, orchestrator included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Node returns the descriptor for uid, if registered.
func (r *Registry) Node(uid int) (protocol.Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if uid < 0 || uid >= len(r.nodes) {
		return protocol.Endpoint{}, false
	}
	return r.nodes[uid], true
}

// Targets returns the serving nodes in uid order, excluding the
// orchestrator. The returned slice is a copy.
func (r *Registry) Targets() []protocol.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Endpoint, 0, len(r.nodes))
	for _, ep := range r.nodes {
		if ep.UID == OrchestratorUID {
			continue
		}
		out = append(out, ep)
	}
	return out
}
