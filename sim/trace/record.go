// Package trace provides decision-trace recording for admission and routing analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AdmissionOutcome is the result of an arrival at a node.
type AdmissionOutcome string

const (
	OutcomeServed  AdmissionOutcome = "served"  // entered a service slot
	OutcomeQueued  AdmissionOutcome = "queued"  // entered the wait queue
	OutcomeDropped AdmissionOutcome = "dropped" // no slot, no queue room
	OutcomePassed  AdmissionOutcome = "passed"  // pass-through node, no admission
)

// AdmissionRecord captures a single admission decision at a node.
type AdmissionRecord struct {
	Packet   int     // pool index
	Node     int     // node index
	NodeKind string
	Clock    float64 // virtual ms
	Outcome  AdmissionOutcome
	Response bool // packet was on its return trip
}

// TerminalTarget marks a routing record with no next node (completion or drop).
const TerminalTarget = -1

// RoutingRecord captures a single routing decision made after a packet left a node.
type RoutingRecord struct {
	Packet   int
	From     int // node index the packet left
	To       int // chosen node index, or TerminalTarget
	Clock    float64
	Response bool
	Reason   string // e.g. "least-loaded (load=0.25)", "anchor", "completed", "no balancer"
}
