package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/trafficsim/trafficsim/sim/trace"
)

// AdmissionDecision is the outcome of a packet arriving at a node with
// service slots.
type AdmissionDecision int

const (
	AdmitServe AdmissionDecision = iota // a service slot is free
	AdmitQueue                          // all slots busy, queue has room
	AdmitDrop                           // slots busy and queue full
)

func (d AdmissionDecision) String() string {
	switch d {
	case AdmitServe:
		return "served"
	case AdmitQueue:
		return "queued"
	default:
		return "dropped"
	}
}

// decideAdmission is the backpressure policy: serve if a slot is free,
// otherwise queue if there is room, otherwise drop.
func decideAdmission(n *Node) AdmissionDecision {
	switch {
	case n.hasFreeSlot():
		return AdmitServe
	case n.hasQueueRoom():
		return AdmitQueue
	default:
		return AdmitDrop
	}
}

// completion is a packet whose service finished at a node this tick.
type completion struct {
	node   int
	packet int
}

// arrive handles a packet that reached its target node: pass-through nodes
// forward it at once, others serve, queue or drop it.
func (e *Engine) arrive(pkt int) {
	p := e.pool.At(pkt)
	idx := p.Target
	if idx < 0 || idx >= len(e.nodes) {
		e.drop(pkt, idx, "stale target")
		return
	}
	node := e.nodes[idx]

	p.X, p.Y = node.X, node.Y
	p.Current = idx
	if node.Kind == KindWorker && !p.IsResponse {
		p.Anchor = idx
	}

	if node.Spec.PassThrough() {
		e.traceAdmission(pkt, idx, trace.OutcomePassed)
		e.route(pkt, idx)
		return
	}

	decision := decideAdmission(node)
	switch decision {
	case AdmitServe:
		p.State = StateProcessing
		node.InService = append(node.InService, ServiceSlot{
			Packet:      pkt,
			RemainingMs: node.Spec.AdjustedServiceTime(p.Size),
			Size:        p.Size,
		})
		e.traceAdmission(pkt, idx, trace.OutcomeServed)
	case AdmitQueue:
		p.State = StateQueued
		node.Queue.Enqueue(pkt)
		e.traceAdmission(pkt, idx, trace.OutcomeQueued)
	case AdmitDrop:
		e.pool.release(pkt)
		node.Dropped++
		e.stats.Dropped++
		logrus.Debugf("[t=%.1f] node %d (%s) full: packet %d dropped", e.clock, node.ID, node.Kind, pkt)
		e.traceAdmission(pkt, idx, trace.OutcomeDropped)
	}
}

// serviceNodes advances every in-service slot by delta, collects the
// completions into e.completions and refills freed slots from the wait
// queues, oldest first. Routing of the completions is left to the caller so
// that it happens after motion in the same tick.
func (e *Engine) serviceNodes(deltaMs float64) []completion {
	e.completions = e.completions[:0]
	for idx, node := range e.nodes {
		remaining := node.InService[:0]
		for _, slot := range node.InService {
			slot.RemainingMs -= deltaMs
			if slot.RemainingMs <= 0 {
				node.Served++
				e.completions = append(e.completions, completion{node: idx, packet: slot.Packet})
				continue
			}
			remaining = append(remaining, slot)
		}
		node.InService = remaining

		e.promote(node)
	}
	return e.completions
}

// promote moves queued packets into free service slots.
func (e *Engine) promote(node *Node) {
	for node.hasFreeSlot() && node.Queue.Len() > 0 {
		pkt := node.Queue.Dequeue()
		p := e.pool.At(pkt)
		p.State = StateProcessing
		node.InService = append(node.InService, ServiceSlot{
			Packet:      pkt,
			RemainingMs: node.Spec.AdjustedServiceTime(p.Size),
			Size:        p.Size,
		})
	}
}

func (e *Engine) traceAdmission(pkt, node int, outcome trace.AdmissionOutcome) {
	if !e.tracer.Enabled() {
		return
	}
	p := e.pool.At(pkt)
	e.tracer.RecordAdmission(trace.AdmissionRecord{
		Packet:   pkt,
		Node:     node,
		NodeKind: e.nodes[node].Kind.String(),
		Clock:    e.clock,
		Outcome:  outcome,
		Response: p.IsResponse,
	})
}
