package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trafficsim/trafficsim/sim/trace"
)

// hopRule says how the next node is chosen once a packet leaves a node.
type hopRule int

const (
	hopFirst       hopRule = iota // first node of the kind in registry order
	hopLeastLoaded                // lowest (in_service+queue)/max_concurrent; first wins ties
	hopAnchor                     // the packet's anchor worker, else first worker
	hopTurnaround                 // becomes a response, then hopAnchor
	hopComplete                   // terminal success
)

// hop is the routing decision for a (kind, direction) pair.
type hop struct {
	rule hopRule
	kind NodeKind // kind of the next node; unused for hopComplete
}

// nextHop is the routing table of the pipeline:
//
//	request:  Entry → Balancer → Worker (least loaded) → Store ⟲
//	response: Store → Worker (anchor) → Balancer → Entry ✓
//
// It is a pure function of the current node kind and trip direction.
// The second result is false for kinds outside the closed set.
func nextHop(kind NodeKind, isResponse bool) (hop, bool) {
	if isResponse {
		switch kind {
		case KindStore:
			return hop{rule: hopAnchor, kind: KindWorker}, true
		case KindWorker:
			return hop{rule: hopFirst, kind: KindBalancer}, true
		case KindBalancer:
			return hop{rule: hopFirst, kind: KindEntry}, true
		case KindEntry:
			return hop{rule: hopComplete}, true
		}
		return hop{}, false
	}
	switch kind {
	case KindEntry:
		return hop{rule: hopFirst, kind: KindBalancer}, true
	case KindBalancer:
		return hop{rule: hopLeastLoaded, kind: KindWorker}, true
	case KindWorker:
		return hop{rule: hopFirst, kind: KindStore}, true
	case KindStore:
		return hop{rule: hopTurnaround, kind: KindWorker}, true
	}
	return hop{}, false
}

// firstOfKind returns the index of the first node of the kind, or -1.
func (e *Engine) firstOfKind(kind NodeKind) int {
	for i, n := range e.nodes {
		if n.Kind == kind {
			return i
		}
	}
	return -1
}

// leastLoaded returns the node of the kind with the strictly lowest
// selection load; the first one found wins ties. Returns -1 when none exists.
func (e *Engine) leastLoaded(kind NodeKind) (int, float32) {
	best := -1
	var bestLoad float32
	for i, n := range e.nodes {
		if n.Kind != kind {
			continue
		}
		load := n.selectionLoad()
		if best < 0 || load < bestLoad {
			best = i
			bestLoad = load
		}
	}
	return best, bestLoad
}

// anchorOrFirst returns the packet's anchor if it still names a worker,
// otherwise the first worker in registry order.
func (e *Engine) anchorOrFirst(p *Packet) (int, string) {
	if a := p.Anchor; a >= 0 && a < len(e.nodes) && e.nodes[a].Kind == KindWorker {
		return a, "anchor"
	}
	return e.firstOfKind(KindWorker), "anchor stale, first worker"
}

// route sends the packet that just left node from to its next node, or
// terminates it. A missing node of the required kind drops the packet.
func (e *Engine) route(pkt, from int) {
	p := e.pool.At(pkt)
	node := e.nodes[from]

	h, ok := nextHop(node.Kind, p.IsResponse)
	if !ok {
		e.drop(pkt, from, fmt.Sprintf("no route from %s", node.Kind))
		return
	}

	var next int
	var reason string
	switch h.rule {
	case hopComplete:
		e.complete(pkt, from)
		return
	case hopFirst:
		next = e.firstOfKind(h.kind)
		reason = "first " + h.kind.String()
	case hopLeastLoaded:
		var load float32
		next, load = e.leastLoaded(h.kind)
		reason = fmt.Sprintf("least-loaded (load=%.2f)", load)
	case hopAnchor:
		next, reason = e.anchorOrFirst(p)
	case hopTurnaround:
		p.IsResponse = true
		p.Size *= e.cfg.ResponseSizeRatio
		next, reason = e.anchorOrFirst(p)
		reason = "turnaround, " + reason
	}

	if next < 0 {
		e.drop(pkt, from, "no "+h.kind.String())
		return
	}
	p.moveTo(next, node.X, node.Y)
	e.traceRouting(pkt, from, next, reason)
}

// complete terminates a packet that returned to an entry node.
func (e *Engine) complete(pkt, at int) {
	p := e.pool.At(pkt)
	e.roundTrips = append(e.roundTrips, e.clock-p.SpawnedAt)
	e.pool.release(pkt)
	e.stats.Processed++
	e.traceRouting(pkt, at, trace.TerminalTarget, "completed")
}

// drop terminates a packet after a routing failure.
func (e *Engine) drop(pkt, at int, reason string) {
	e.pool.release(pkt)
	e.stats.Dropped++
	logrus.Debugf("[t=%.1f] packet %d dropped at node %d: %s", e.clock, pkt, at, reason)
	e.traceRouting(pkt, at, trace.TerminalTarget, reason)
}

func (e *Engine) traceRouting(pkt, from, to int, reason string) {
	if !e.tracer.Enabled() {
		return
	}
	e.tracer.RecordRouting(trace.RoutingRecord{
		Packet:   pkt,
		From:     from,
		To:       to,
		Clock:    e.clock,
		Response: e.pool.At(pkt).IsResponse,
		Reason:   reason,
	})
}
