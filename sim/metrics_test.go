package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_SuccessRate(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  float64
	}{
		{"nothing terminated", Stats{}, 1},
		{"all processed", Stats{Spawned: 4, Processed: 4}, 1},
		{"half dropped", Stats{Spawned: 4, Processed: 2, Dropped: 2}, 0.5},
		{"expired excluded", Stats{Spawned: 10, Processed: 3, Dropped: 1, Expired: 6}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.stats.SuccessRate(), 1e-12)
		})
	}
}

func TestStats_Terminated(t *testing.T) {
	s := Stats{Spawned: 10, Processed: 3, Dropped: 2, Expired: 1}
	assert.Equal(t, 6, s.Terminated())
}

func TestSummarizeLatencies_Empty(t *testing.T) {
	assert.Equal(t, LatencySummary{}, SummarizeLatencies(nil))
}

func TestSummarizeLatencies_SingleSample(t *testing.T) {
	got := SummarizeLatencies([]float64{120})
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 120.0, got.Mean)
	assert.Equal(t, 0.0, got.Std)
	assert.Equal(t, 120.0, got.P50)
	assert.Equal(t, 120.0, got.P99)
	assert.Equal(t, 120.0, got.Max)
}

func TestSummarizeLatencies_UnsortedInputUntouched(t *testing.T) {
	// GIVEN unsorted samples 1..10 in reverse
	samples := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	// WHEN summarized
	got := SummarizeLatencies(samples)

	// THEN the input keeps its order and the quantiles are empirical
	assert.Equal(t, 10.0, samples[0])
	assert.Equal(t, 10, got.Count)
	assert.InDelta(t, 5.5, got.Mean, 1e-12)
	assert.Equal(t, 5.0, got.P50)
	assert.Equal(t, 10.0, got.P95)
	assert.Equal(t, 10.0, got.Max)
	assert.Greater(t, got.Std, 0.0)
}
