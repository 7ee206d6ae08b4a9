package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/trafficsim/trafficsim/sim"
	"github.com/trafficsim/trafficsim/sim/stage"
)

// RunResult is the JSON summary written by `run --results`.
type RunResult struct {
	Stage        string             `json:"stage"`
	Seed         int64              `json:"seed"`
	Ticks        int                `json:"ticks"`
	ClockMs      float64            `json:"clock_ms"`
	Spawned      int                `json:"spawned"`
	Processed    int                `json:"processed"`
	Dropped      int                `json:"dropped"`
	Expired      int                `json:"expired"`
	InFlight     int                `json:"in_flight"`
	RoundTrip    sim.LatencySummary `json:"round_trip"`
	Score        stage.Result       `json:"score"`
	TopologyCost int                `json:"topology_cost"`
	WithinBudget bool               `json:"within_budget"`
}

// newRunResult collects the end-of-run summary from a finished simulation.
func newRunResult(s *stage.Stage, e *sim.Engine, d *stage.Director, seed int64, ticks int) RunResult {
	stats := e.Stats()
	return RunResult{
		Stage:        s.Meta.Title,
		Seed:         seed,
		Ticks:        ticks,
		ClockMs:      e.CurrentTime(),
		Spawned:      stats.Spawned,
		Processed:    stats.Processed,
		Dropped:      stats.Dropped,
		Expired:      stats.Expired,
		InFlight:     e.ActiveCount(),
		RoundTrip:    sim.SummarizeLatencies(e.RoundTrips()),
		Score:        d.Evaluate(),
		TopologyCost: stage.TopologyCost(s),
		WithinBudget: stage.WithinBudget(s),
	}
}

// saveResults writes r as indented JSON to path.
func saveResults(r RunResult, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}
	return nil
}
