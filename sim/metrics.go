// Tracks simulation-wide packet counters and round-trip latency samples.

package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats holds the monotonically increasing packet counters of an engine.
// Counters only go back to zero through Engine.Reset or Engine.ResetStats.
//
// Conservation: Spawned == Processed + Dropped + Expired + active packets.
type Stats struct {
	Spawned   int // packets emitted into the pool
	Processed int // round trips completed at an entry node
	Dropped   int // admission, routing or stale-target failures
	Expired   int // free-flight packets that left the bounds
}

// Terminated returns the number of packets that reached a terminal state.
func (s Stats) Terminated() int {
	return s.Processed + s.Dropped + s.Expired
}

// SuccessRate returns Processed / (Processed + Dropped), or 1 when neither
// has happened yet. Expired free-flight packets are not part of the ratio.
func (s Stats) SuccessRate() float64 {
	total := s.Processed + s.Dropped
	if total == 0 {
		return 1
	}
	return float64(s.Processed) / float64(total)
}

// LatencySummary aggregates round-trip times (virtual milliseconds).
type LatencySummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean_ms"`
	Std   float64 `json:"std_ms"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

// SummarizeLatencies computes mean, spread and empirical quantiles of the
// samples. The input slice is not modified. Empty input yields a zero summary.
func SummarizeLatencies(samples []float64) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return LatencySummary{
		Count: len(sorted),
		Mean:  mean,
		Std:   std,
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, sorted, nil),
		Max:   sorted[len(sorted)-1],
	}
}

// Print displays the counters and latency summary at the end of a run.
func (s Stats) Print(active int, lat LatencySummary) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Spawned Packets      : %d\n", s.Spawned)
	fmt.Printf("Completed Round Trips: %d\n", s.Processed)
	fmt.Printf("Dropped Packets      : %d\n", s.Dropped)
	fmt.Printf("Expired Packets      : %d\n", s.Expired)
	fmt.Printf("In Flight            : %d\n", active)
	fmt.Printf("Success Rate         : %.4f\n", s.SuccessRate())
	if lat.Count > 0 {
		fmt.Printf("Round Trip Mean      : %.2f ms\n", lat.Mean)
		fmt.Printf("Round Trip p50/p95/p99: %.2f / %.2f / %.2f ms\n", lat.P50, lat.P95, lat.P99)
	}
}
