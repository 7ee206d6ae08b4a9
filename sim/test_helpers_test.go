package sim

import (
	"testing"
)

// fixedRand is a RandomSource that always returns the same value.
// 0.5 makes spawned speed exactly equal to the base speed.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// newTestEngine returns an engine whose spawn speeds carry no variance.
func newTestEngine(maxPackets int) *Engine {
	return NewEngineFromConfig(DefaultEngineConfig(maxPackets), fixedRand(0.5))
}

// Indices of the nodes added by addPipeline.
const (
	entryIdx    = 0
	balancerIdx = 1
	workerIdx   = 2
	storeIdx    = 3
)

// addPipeline registers Entry → Balancer → Worker → Store on a line,
// 100 units apart, with default specs.
func addPipeline(e *Engine) {
	e.AddNode(1, 0, 0, KindEntry)
	e.AddNode(2, 100, 0, KindBalancer)
	e.AddNode(3, 200, 0, KindWorker)
	e.AddNode(4, 300, 0, KindStore)
}

// assertInvariants checks the capacity and conservation invariants.
func assertInvariants(t *testing.T, e *Engine) {
	t.Helper()
	for _, n := range e.Nodes() {
		if n.InService > n.Spec.MaxConcurrent {
			t.Fatalf("t=%.0f node %d: in_service %d > max_concurrent %d", e.CurrentTime(), n.Index, n.InService, n.Spec.MaxConcurrent)
		}
		if n.Queued > n.Spec.QueueCapacity {
			t.Fatalf("t=%.0f node %d: queued %d > queue_capacity %d", e.CurrentTime(), n.Index, n.Queued, n.Spec.QueueCapacity)
		}
	}
	s := e.Stats()
	if s.Spawned != s.Terminated()+e.ActiveCount() {
		t.Fatalf("t=%.0f conservation violated: spawned=%d processed=%d dropped=%d expired=%d active=%d",
			e.CurrentTime(), s.Spawned, s.Processed, s.Dropped, s.Expired, e.ActiveCount())
	}
}
