package stage

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trafficsim/trafficsim/sim"
)

// Wave emission constants.
const (
	waveSpeedVariance float32 = 1.0
	waveComplexity    uint8   = 10
)

// Director fires a stage's waves into an engine as virtual time passes.
//
// Thread-safety: NOT thread-safe. Shares the engine's single owner.
type Director struct {
	stage   *Stage
	engine  *sim.Engine
	nodeIdx map[string]int // fixed node id -> registry index
	pending []Wave
}

// ApplyOption customizes how a stage is applied.
type ApplyOption func(*applyOptions)

type applyOptions struct {
	specs map[sim.NodeKind]sim.NodeSpec
}

// WithNodeSpecs replaces the default spec of the listed kinds.
func WithNodeSpecs(specs map[sim.NodeKind]sim.NodeSpec) ApplyOption {
	return func(o *applyOptions) { o.specs = specs }
}

// Apply validates the stage, replaces the engine's nodes with the stage's
// fixed nodes (default specs unless overridden, registry index = file order)
// and returns a Director holding every wave as pending.
func Apply(s *Stage, e *sim.Engine, opts ...ApplyOption) (*Director, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("applying stage: %w", err)
	}
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	e.ClearNodes()
	nodeIdx := make(map[string]int, len(s.Map.FixedNodes))
	for i, n := range s.Map.FixedNodes {
		kind, err := sim.ParseNodeKind(n.Type)
		if err != nil {
			return nil, fmt.Errorf("applying stage: node %s: %w", n.ID, err)
		}
		if spec, ok := o.specs[kind]; ok {
			e.AddNodeWithSpec(uint32(i), float32(n.X), float32(n.Y), kind,
				spec.MaxConcurrent, spec.ServiceTimeMs, spec.QueueCapacity, spec.Cost)
		} else {
			e.AddNode(uint32(i), float32(n.X), float32(n.Y), kind)
		}
		nodeIdx[n.ID] = i
	}

	d := &Director{stage: s, engine: e, nodeIdx: nodeIdx}
	d.ResetWaves()
	logrus.Infof("stage applied: %q, %d nodes, %d waves pending", s.Meta.Title, len(nodeIdx), len(d.pending))
	return d, nil
}

// Stage returns the stage being directed.
func (d *Director) Stage() *Stage {
	return d.stage
}

// TriggerUntil fires every pending wave whose start time is at or before
// nowMs and returns how many fired. Each wave spawns from its source node's
// position toward the source node itself. Waves naming an unknown source are
// logged and discarded.
func (d *Director) TriggerUntil(nowMs float64) int {
	fired := 0
	remaining := d.pending[:0]
	for _, w := range d.pending {
		if w.TimeStartMs > nowMs {
			remaining = append(remaining, w)
			continue
		}
		idx, ok := d.nodeIdx[w.SourceID]
		if !ok {
			logrus.Warnf("wave source_id %q not found; wave discarded", w.SourceID)
			continue
		}
		x, y, ok := d.engine.NodePositionByIndex(idx)
		if !ok {
			logrus.Warnf("wave source %q (node %d) no longer registered; wave discarded", w.SourceID, idx)
			continue
		}
		d.engine.RegisterSpawnToNode(x, y, idx, w.Count, w.DurationMs,
			float32(w.Speed), waveSpeedVariance, sim.ParsePacketType(w.PacketType), waveComplexity)
		fired++
		logrus.Infof("wave triggered: %d %s packets from %s at t=%.0fms (scheduled %.0fms)",
			w.Count, sim.ParsePacketType(w.PacketType), w.SourceID, nowMs, w.TimeStartMs)
	}
	clear(d.pending[len(remaining):])
	d.pending = remaining
	return fired
}

// PendingWaves returns the number of waves not yet fired.
func (d *Director) PendingWaves() int {
	return len(d.pending)
}

// ResetWaves restores every wave of the stage to pending.
func (d *Director) ResetWaves() {
	d.pending = append(make([]Wave, 0, len(d.stage.Waves)), d.stage.Waves...)
	logrus.Debugf("stage waves reset: %d waves pending", len(d.pending))
}

// Evaluate scores the engine's current stats against the stage SLA target.
func (d *Director) Evaluate() Result {
	return Evaluate(d.engine.Stats(), d.stage.Meta.SLATarget)
}
