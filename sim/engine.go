// sim/engine.go
package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/trafficsim/trafficsim/sim/trace"
)

// Engine is the traffic simulation: a node registry, a packet pool and the
// pending spawn tasks, advanced only by Tick.
//
// Thread-safety: NOT thread-safe. The engine is owned by its driver and every
// operation must be called from a single goroutine.
type Engine struct {
	cfg   EngineConfig
	rng   RandomSource
	pool  *PacketPool
	nodes []*Node

	spawns     []*SpawnTask
	clock      float64
	stats      Stats
	roundTrips []float64

	tracer *trace.SimulationTrace

	// per-tick scratch buffers
	arrivals    []int
	completions []completion
}

// NewEngine creates an engine with maxPackets pool slots and the default
// configuration, seeded with DefaultSeed.
func NewEngine(maxPackets int) *Engine {
	return NewEngineFromConfig(DefaultEngineConfig(maxPackets), nil)
}

// NewEngineFromConfig creates an engine from cfg. When rng is nil the spawn
// subsystem of a PartitionedRNG seeded with cfg.Seed is used.
// Panics if cfg.MaxPackets is negative.
func NewEngineFromConfig(cfg EngineConfig, rng RandomSource) *Engine {
	if rng == nil {
		rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed)).ForSubsystem(SubsystemSpawn)
	}
	e := &Engine{
		cfg:  cfg,
		rng:  rng,
		pool: NewPacketPool(cfg.MaxPackets),
	}
	logrus.Infof("engine created with %d packet slots", cfg.MaxPackets)
	return e
}

// SetTracer attaches a decision trace. A nil trace disables recording.
func (e *Engine) SetTracer(t *trace.SimulationTrace) {
	e.tracer = t
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// === Node registry ===

// AddNode appends a node with the default spec of its kind.
func (e *Engine) AddNode(id uint32, x, y float32, kind NodeKind) {
	n := newNode(id, x, y, kind, DefaultSpec(kind))
	e.nodes = append(e.nodes, n)
	logrus.Infof("node added: id=%d, pos=(%.1f, %.1f), kind=%s, max_concurrent=%d, service=%.1fms",
		id, x, y, kind, n.Spec.MaxConcurrent, n.Spec.ServiceTimeMs)
}

// AddNodeWithSpec appends a node with an explicit spec. The bandwidth factor
// is taken from the kind's default spec.
func (e *Engine) AddNodeWithSpec(id uint32, x, y float32, kind NodeKind,
	maxConcurrent int, serviceTimeMs float64, queueCapacity, cost int) {
	spec := NodeSpec{
		MaxConcurrent:   maxConcurrent,
		ServiceTimeMs:   serviceTimeMs,
		QueueCapacity:   queueCapacity,
		Cost:            cost,
		BandwidthFactor: DefaultSpec(kind).BandwidthFactor,
	}
	e.nodes = append(e.nodes, newNode(id, x, y, kind, spec))
	logrus.Infof("node added with spec: id=%d, kind=%s, max_concurrent=%d, service=%.1fms, queue=%d, cost=%d, bw_factor=%.2f",
		id, kind, maxConcurrent, serviceTimeMs, queueCapacity, cost, spec.BandwidthFactor)
}

// ClearNodes removes every node. Packets held at a node are dropped now;
// packets travelling to a node are dropped on the next tick.
func (e *Engine) ClearNodes() {
	for i := 0; i < e.pool.Cap(); i++ {
		p := e.pool.At(i)
		if !p.Active {
			continue
		}
		switch {
		case p.State != StateMoving:
			e.pool.release(i)
			e.stats.Dropped++
		case p.Target >= 0:
			p.Target = staleTarget
		}
	}
	e.nodes = nil
	logrus.Info("all nodes cleared")
}

// NodeCount returns the number of registered nodes.
func (e *Engine) NodeCount() int {
	return len(e.nodes)
}

// UpdateNodePosition moves the node with the given id. Unknown ids are
// logged and ignored.
func (e *Engine) UpdateNodePosition(id uint32, x, y float32) {
	idx := e.NodeIndexByID(id)
	if idx < 0 {
		logrus.Warnf("node with id=%d not found for position update", id)
		return
	}
	e.nodes[idx].X = x
	e.nodes[idx].Y = y
	logrus.Debugf("node position updated: id=%d, pos=(%.1f, %.1f)", id, x, y)
}

// NodeIndexByID returns the registry index of the first node with the id, or -1.
func (e *Engine) NodeIndexByID(id uint32) int {
	for i, n := range e.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// NodePosition returns the position of the node with the given id.
func (e *Engine) NodePosition(id uint32) (x, y float32, ok bool) {
	idx := e.NodeIndexByID(id)
	if idx < 0 {
		return 0, 0, false
	}
	return e.nodes[idx].X, e.nodes[idx].Y, true
}

// NodePositionByIndex returns the position of the node at registry index i.
func (e *Engine) NodePositionByIndex(i int) (x, y float32, ok bool) {
	if i < 0 || i >= len(e.nodes) {
		return 0, 0, false
	}
	return e.nodes[i].X, e.nodes[i].Y, true
}

// NodeKindByIndex returns the kind of the node at registry index i.
func (e *Engine) NodeKindByIndex(i int) (NodeKind, bool) {
	if i < 0 || i >= len(e.nodes) {
		return 0, false
	}
	return e.nodes[i].Kind, true
}

// Nodes returns a snapshot of every node in registry order.
func (e *Engine) Nodes() []NodeSnapshot {
	out := make([]NodeSnapshot, len(e.nodes))
	for i, n := range e.nodes {
		out[i] = n.snapshot(i)
	}
	return out
}

// === Time advance ===

// Tick advances the simulation by deltaMs of virtual time. Phases run in a
// fixed order:
//  1. spawn emission
//  2. service countdown and queue promotion
//  3. packet motion and arrival detection
//  4. routing of service completions, then handling of arrivals
//
// Routing therefore always sees this tick's post-countdown service state and
// post-motion arrivals.
func (e *Engine) Tick(deltaMs float64) {
	if deltaMs < 0 {
		logrus.Warnf("negative tick delta %.3fms ignored", deltaMs)
		deltaMs = 0
	}
	e.clock += deltaMs

	e.emitSpawns()
	completed := e.serviceNodes(deltaMs)
	arrived := e.movePackets()

	for _, c := range completed {
		if e.pool.At(c.packet).Active {
			e.route(c.packet, c.node)
		}
	}
	for _, idx := range arrived {
		e.arrive(idx)
	}
}

// === Queries ===

// ActiveCount returns the number of active packets.
func (e *Engine) ActiveCount() int {
	return e.pool.ActiveCount()
}

// MaxPackets returns the pool capacity.
func (e *Engine) MaxPackets() int {
	return e.pool.Cap()
}

// CurrentTime returns the virtual clock in milliseconds.
func (e *Engine) CurrentTime() float64 {
	return e.clock
}

// PendingSpawns returns the number of spawn tasks not yet fully emitted.
func (e *Engine) PendingSpawns() int {
	return len(e.spawns)
}

// Stats returns a copy of the packet counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// StatsSpawned returns the number of packets emitted.
func (e *Engine) StatsSpawned() int { return e.stats.Spawned }

// StatsProcessed returns the number of completed round trips.
func (e *Engine) StatsProcessed() int { return e.stats.Processed }

// StatsDropped returns the number of dropped packets.
func (e *Engine) StatsDropped() int { return e.stats.Dropped }

// StatsExpired returns the number of free-flight packets that left the bounds.
func (e *Engine) StatsExpired() int { return e.stats.Expired }

// RoundTrips returns the round-trip times of completed packets, in
// completion order. The slice is the engine's storage; do not modify it.
func (e *Engine) RoundTrips() []float64 {
	return e.roundTrips
}

// NodeLoadRates returns (in_service + queued) / max_concurrent per node,
// in registry order. Nodes without service slots report 0.
func (e *Engine) NodeLoadRates() []float32 {
	rates := make([]float32, len(e.nodes))
	for i, n := range e.nodes {
		rates[i] = n.Load()
	}
	return rates
}

// ActiveCoordinates returns flat x,y pairs of every active packet in pool order.
func (e *Engine) ActiveCoordinates() []float32 {
	coords := make([]float32, 0, 2*e.pool.Cap())
	for i := 0; i < e.pool.Cap(); i++ {
		if p := e.pool.At(i); p.Active {
			coords = append(coords, p.X, p.Y)
		}
	}
	return coords
}

// ActivePacketDetails returns flat x, y, is_response (0/1), size quadruples
// of every active packet in pool order.
func (e *Engine) ActivePacketDetails() []float32 {
	details := make([]float32, 0, 4*e.pool.Cap())
	for i := 0; i < e.pool.Cap(); i++ {
		p := e.pool.At(i)
		if !p.Active {
			continue
		}
		var response float32
		if p.IsResponse {
			response = 1
		}
		details = append(details, p.X, p.Y, response, p.Size)
	}
	return details
}

// Packet returns a copy of pool slot i.
func (e *Engine) Packet(i int) (Packet, bool) {
	if i < 0 || i >= e.pool.Cap() {
		return Packet{}, false
	}
	return *e.pool.At(i), true
}

// === Reset ===

// ResetStats zeroes the packet counters and round-trip samples only.
func (e *Engine) ResetStats() {
	e.stats = Stats{}
	e.roundTrips = nil
	logrus.Info("stats reset")
}

// Reset deactivates every packet, clears pending spawns, zeroes the clock and
// stats, and empties node service slots and queues. Node topology (ids,
// positions, specs, order) is preserved. Calling Reset twice equals calling
// it once.
func (e *Engine) Reset() {
	e.pool.releaseAll()
	e.spawns = nil
	e.clock = 0
	e.stats = Stats{}
	e.roundTrips = nil
	for _, n := range e.nodes {
		n.resetRuntime()
	}
	logrus.Info("simulation reset")
}
