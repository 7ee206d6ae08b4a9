package stage

import (
	"fmt"
	"sort"
)

// Compose merges stages into one: the first stage supplies meta and map,
// and the waves of every stage are concatenated and ordered by start time
// (file order on ties). Waves must reference nodes of the first stage.
func Compose(stages []*Stage) (*Stage, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("compose: no stages given")
	}
	base := stages[0]
	merged := &Stage{
		Meta: base.Meta,
		Map:  MapConfig{FixedNodes: append([]FixedNode(nil), base.Map.FixedNodes...)},
	}
	for _, s := range stages {
		merged.Waves = append(merged.Waves, s.Waves...)
	}
	sort.SliceStable(merged.Waves, func(i, j int) bool {
		return merged.Waves[i].TimeStartMs < merged.Waves[j].TimeStartMs
	})
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	return merged, nil
}
