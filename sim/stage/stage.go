// Package stage loads declarative stage files (fixed topology plus timed
// traffic waves) and drives them into a sim.Engine.
package stage

import (
	"fmt"

	"github.com/trafficsim/trafficsim/sim"
)

// Stage is the full content of a stage file.
// All sections must be listed to satisfy KnownFields(true) strict parsing.
type Stage struct {
	Meta  Meta      `yaml:"meta" json:"meta" hcl:"meta,block"`
	Map   MapConfig `yaml:"map" json:"map" hcl:"map,block"`
	Waves []Wave    `yaml:"waves" json:"waves" hcl:"wave,block"`
}

// Meta describes the stage and its scoring targets.
type Meta struct {
	Title       string  `yaml:"title" json:"title" hcl:"title"`
	Description string  `yaml:"description" json:"description" hcl:"description,optional"`
	Budget      int     `yaml:"budget" json:"budget" hcl:"budget,optional"`             // max topology cost; 0 = unlimited
	SLATarget   float64 `yaml:"sla_target" json:"sla_target" hcl:"sla_target,optional"` // required success rate in [0,1]
}

// MapConfig holds the nodes placed by the stage itself.
type MapConfig struct {
	FixedNodes []FixedNode `yaml:"fixed_nodes" json:"fixed_nodes" hcl:"node,block"`
}

// FixedNode is a node placed at load time. Its registry index is its
// position in FixedNodes.
type FixedNode struct {
	ID   string  `yaml:"id" json:"id" hcl:"id,label"`
	Type string  `yaml:"type" json:"type" hcl:"type"`
	X    float64 `yaml:"x" json:"x" hcl:"x"`
	Y    float64 `yaml:"y" json:"y" hcl:"y"`
}

// Wave is a burst of traffic emitted from a fixed node.
type Wave struct {
	TimeStartMs float64 `yaml:"time_start_ms" json:"time_start_ms" hcl:"time_start_ms"`
	SourceID    string  `yaml:"source_id" json:"source_id" hcl:"source_id"`
	Count       int     `yaml:"count" json:"count" hcl:"count"`
	DurationMs  float64 `yaml:"duration_ms" json:"duration_ms" hcl:"duration_ms,optional"`
	PacketType  string  `yaml:"packet_type" json:"packet_type" hcl:"packet_type,optional"`
	Speed       float64 `yaml:"speed" json:"speed" hcl:"speed"`
}

// Validate checks node types, id uniqueness, wave sources and numeric ranges.
// It returns the first problem found.
func (s *Stage) Validate() error {
	if s.Meta.Title == "" {
		return fmt.Errorf("meta.title must not be empty")
	}
	if s.Meta.Budget < 0 {
		return fmt.Errorf("meta.budget must be >= 0, got %d", s.Meta.Budget)
	}
	if s.Meta.SLATarget < 0 || s.Meta.SLATarget > 1 {
		return fmt.Errorf("meta.sla_target must be in [0, 1], got %g", s.Meta.SLATarget)
	}

	ids := make(map[string]bool, len(s.Map.FixedNodes))
	for i, n := range s.Map.FixedNodes {
		if n.ID == "" {
			return fmt.Errorf("map.fixed_nodes[%d]: id must not be empty", i)
		}
		if ids[n.ID] {
			return fmt.Errorf("map.fixed_nodes[%d]: duplicate id %q", i, n.ID)
		}
		ids[n.ID] = true
		if _, err := sim.ParseNodeKind(n.Type); err != nil {
			return fmt.Errorf("map.fixed_nodes[%d] (%s): %w", i, n.ID, err)
		}
	}

	for i, w := range s.Waves {
		if !ids[w.SourceID] {
			return fmt.Errorf("waves[%d]: unknown source_id %q", i, w.SourceID)
		}
		if w.Count < 0 {
			return fmt.Errorf("waves[%d]: count must be >= 0, got %d", i, w.Count)
		}
		if w.TimeStartMs < 0 {
			return fmt.Errorf("waves[%d]: time_start_ms must be >= 0, got %g", i, w.TimeStartMs)
		}
		if w.DurationMs < 0 {
			return fmt.Errorf("waves[%d]: duration_ms must be >= 0, got %g", i, w.DurationMs)
		}
		if w.Speed <= 0 {
			return fmt.Errorf("waves[%d]: speed must be > 0, got %g", i, w.Speed)
		}
	}
	return nil
}

// TotalPackets returns the number of packets all waves will emit.
func (s *Stage) TotalPackets() int {
	total := 0
	for _, w := range s.Waves {
		total += w.Count
	}
	return total
}

// TopologyCost sums the default placement cost of every fixed node.
// Nodes with an unknown type cost nothing.
func TopologyCost(s *Stage) int {
	cost := 0
	for _, n := range s.Map.FixedNodes {
		kind, err := sim.ParseNodeKind(n.Type)
		if err != nil {
			continue
		}
		cost += sim.DefaultSpec(kind).Cost
	}
	return cost
}

// WithinBudget reports whether the topology cost fits meta.budget.
// A zero budget is unlimited.
func WithinBudget(s *Stage) bool {
	return s.Meta.Budget == 0 || TopologyCost(s) <= s.Meta.Budget
}

// Result is the score of a finished (or running) stage.
type Result struct {
	SuccessRate float64 `json:"success_rate"`
	SLATarget   float64 `json:"sla_target"`
	MetSLA      bool    `json:"met_sla"`
}

// Evaluate scores engine stats against an SLA target. The success rate is
// processed / (processed + dropped), or 1 when neither has happened.
func Evaluate(stats sim.Stats, slaTarget float64) Result {
	rate := stats.SuccessRate()
	return Result{
		SuccessRate: rate,
		SLATarget:   slaTarget,
		MetSLA:      rate >= slaTarget,
	}
}
