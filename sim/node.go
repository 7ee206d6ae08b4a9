// Defines the typed service stages (nodes) of the simulated pipeline and
// their performance specifications.

package sim

import (
	"fmt"
	"strings"
)

// NodeKind tags a node with the role it plays in the pipeline.
type NodeKind int

const (
	KindEntry    NodeKind = iota // traffic enters and responses terminate here
	KindBalancer                 // spreads requests across workers
	KindWorker                   // application server
	KindStore                    // data store; turns requests into responses
)

// nodeKindNames maps accepted (lower-case) spellings to kinds. The legacy
// names used by older stage files are accepted alongside the canonical ones.
var nodeKindNames = map[string]NodeKind{
	"entry":    KindEntry,
	"gateway":  KindEntry,
	"balancer": KindBalancer,
	"lb":       KindBalancer,
	"worker":   KindWorker,
	"server":   KindWorker,
	"store":    KindStore,
	"db":       KindStore,
}

// ParseNodeKind converts a case-insensitive kind name into a NodeKind.
func ParseNodeKind(name string) (NodeKind, error) {
	kind, ok := nodeKindNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown node kind %q; valid: entry, balancer, worker, store", name)
	}
	return kind, nil
}

// Valid reports whether k is one of the four known kinds.
func (k NodeKind) Valid() bool {
	return k >= KindEntry && k <= KindStore
}

func (k NodeKind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindBalancer:
		return "balancer"
	case KindWorker:
		return "worker"
	case KindStore:
		return "store"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NodeSpec holds the performance constants of a node.
type NodeSpec struct {
	MaxConcurrent   int     // simultaneous service slots
	ServiceTimeMs   float64 // service time for a unit-size packet; 0 = pass-through
	QueueCapacity   int     // wait queue bound
	Cost            int     // placement cost, informational only
	BandwidthFactor float64 // how strongly packet size inflates service time
}

// PassThrough reports whether the node forwards packets without admission.
func (s NodeSpec) PassThrough() bool {
	return s.ServiceTimeMs <= 0
}

// AdjustedServiceTime returns the service time for a packet of the given size:
// base · (1 + (size−1) · bandwidth).
func (s NodeSpec) AdjustedServiceTime(size float32) float64 {
	return s.ServiceTimeMs * (1 + (float64(size)-1)*s.BandwidthFactor)
}

// DefaultSpec returns the stock specification for a node kind.
// Unknown kinds get the zero spec, which behaves as a pass-through.
func DefaultSpec(kind NodeKind) NodeSpec {
	switch kind {
	case KindEntry:
		return NodeSpec{MaxConcurrent: 10000, ServiceTimeMs: 0, QueueCapacity: 10000, Cost: 0, BandwidthFactor: 0}
	case KindBalancer:
		return NodeSpec{MaxConcurrent: 100, ServiceTimeMs: 10, QueueCapacity: 500, Cost: 100, BandwidthFactor: 0.5}
	case KindWorker:
		return NodeSpec{MaxConcurrent: 20, ServiceTimeMs: 50, QueueCapacity: 50, Cost: 150, BandwidthFactor: 0.3}
	case KindStore:
		return NodeSpec{MaxConcurrent: 10, ServiceTimeMs: 30, QueueCapacity: 100, Cost: 200, BandwidthFactor: 0.2}
	default:
		return NodeSpec{}
	}
}

// ServiceSlot is a packet currently being served at a node.
type ServiceSlot struct {
	Packet      int     // pool index
	RemainingMs float64 // time left until service completes
	Size        float32 // packet size at admission
}

// Node is a service stage with its runtime state.
//
// Invariants (enforced at admission and promotion):
//   - len(InService) <= Spec.MaxConcurrent
//   - Queue.Len() <= Spec.QueueCapacity
type Node struct {
	X, Y float32
	ID   uint32
	Kind NodeKind
	Spec NodeSpec

	InService []ServiceSlot
	Queue     *WaitQueue
	Served    int // lifetime completed services
	Dropped   int // lifetime admission drops
}

func newNode(id uint32, x, y float32, kind NodeKind, spec NodeSpec) *Node {
	return &Node{
		X:     x,
		Y:     y,
		ID:    id,
		Kind:  kind,
		Spec:  spec,
		Queue: &WaitQueue{},
	}
}

// Load returns (in_service + queued) / max_concurrent, or 0 for a node
// without service slots.
func (n *Node) Load() float32 {
	if n.Spec.MaxConcurrent <= 0 {
		return 0
	}
	return float32(len(n.InService)+n.Queue.Len()) / float32(n.Spec.MaxConcurrent)
}

// selectionLoad is Load with the denominator clamped to 1, used for
// least-loaded worker selection.
func (n *Node) selectionLoad() float32 {
	return float32(len(n.InService)+n.Queue.Len()) / float32(max(n.Spec.MaxConcurrent, 1))
}

// hasFreeSlot reports whether another packet can enter service.
func (n *Node) hasFreeSlot() bool {
	return len(n.InService) < n.Spec.MaxConcurrent
}

// hasQueueRoom reports whether another packet can wait.
func (n *Node) hasQueueRoom() bool {
	return n.Queue.Len() < n.Spec.QueueCapacity
}

// resetRuntime clears service slots, the wait queue and lifetime counters,
// keeping position and spec.
func (n *Node) resetRuntime() {
	n.InService = nil
	n.Queue = &WaitQueue{}
	n.Served = 0
	n.Dropped = 0
}

// NodeSnapshot is a read-only copy of a node's observable state.
type NodeSnapshot struct {
	Index     int
	ID        uint32
	Kind      NodeKind
	X, Y      float32
	Spec      NodeSpec
	InService int
	Queued    int
	Served    int
	Dropped   int
	Load      float32
}

func (n *Node) snapshot(idx int) NodeSnapshot {
	return NodeSnapshot{
		Index:     idx,
		ID:        n.ID,
		Kind:      n.Kind,
		X:         n.X,
		Y:         n.Y,
		Spec:      n.Spec,
		InService: len(n.InService),
		Queued:    n.Queue.Len(),
		Served:    n.Served,
		Dropped:   n.Dropped,
		Load:      n.Load(),
	}
}
