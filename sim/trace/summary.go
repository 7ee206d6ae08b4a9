package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAdmissions    int
	ServedCount        int
	QueuedCount        int
	DroppedCount       int
	PassedCount        int
	TotalRoutings      int
	TerminalRoutings   int
	UniqueTargets      int
	TargetDistribution map[int]int // node index → count of packets routed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalAdmissions = len(st.Admissions)
	for _, a := range st.Admissions {
		switch a.Outcome {
		case OutcomeServed:
			summary.ServedCount++
		case OutcomeQueued:
			summary.QueuedCount++
		case OutcomeDropped:
			summary.DroppedCount++
		case OutcomePassed:
			summary.PassedCount++
		}
	}

	summary.TotalRoutings = len(st.Routings)
	for _, r := range st.Routings {
		if r.To == TerminalTarget {
			summary.TerminalRoutings++
			continue
		}
		summary.TargetDistribution[r.To]++
	}
	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
