package sim

import "math"

// staleTarget marks a node-chasing packet whose target was removed by
// ClearNodes. Motion drops such packets on the next tick.
const staleTarget = -2

// movePackets advances every active moving packet and returns the indices of
// packets that reached their target node this tick. Arrivals are not handled
// here so that the node and pool collections are not mutated mid-scan.
func (e *Engine) movePackets() []int {
	e.arrivals = e.arrivals[:0]
	radius := e.cfg.ArrivalRadius
	for i := 0; i < e.pool.Cap(); i++ {
		p := e.pool.At(i)
		if !p.Active || p.State != StateMoving {
			continue
		}

		switch {
		case p.Target >= 0 && p.Target < len(e.nodes):
			target := e.nodes[p.Target]
			dx := target.X - p.X
			dy := target.Y - p.Y
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if dist < radius || dist == 0 {
				e.arrivals = append(e.arrivals, i)
				continue
			}
			p.X += dx / dist * p.Speed
			p.Y += dy / dist * p.Speed

		case p.Target == noIndex:
			p.X += p.VX
			p.Y += p.VY
			if e.cfg.outOfBounds(p.X, p.Y) {
				e.pool.release(i)
				e.stats.Expired++
			}

		default:
			e.drop(i, noIndex, "invalid target")
		}
	}
	return e.arrivals
}
