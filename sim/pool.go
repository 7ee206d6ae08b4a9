package sim

// PacketPool is a fixed-capacity slot array of packets. Slots are never
// allocated or freed individually: emission claims the first inactive slot
// and terminal transitions clear the Active flag.
//
// Thread-safety: NOT thread-safe. Owned by a single Engine.
type PacketPool struct {
	slots []Packet
}

// NewPacketPool creates a pool with capacity inactive slots.
// Panics if capacity is negative.
func NewPacketPool(capacity int) *PacketPool {
	if capacity < 0 {
		panic("NewPacketPool: capacity must be >= 0")
	}
	return &PacketPool{slots: make([]Packet, capacity)}
}

// Cap returns the number of slots.
func (p *PacketPool) Cap() int {
	return len(p.slots)
}

// At returns a pointer to slot i. Callers must pass an index obtained from
// this pool; out-of-range indices panic.
func (p *PacketPool) At(i int) *Packet {
	return &p.slots[i]
}

// claim finds the first inactive slot at or after from, resets it to a fresh
// request packet and marks it active. Returns the slot index, or -1 when the
// pool is full from that point on.
func (p *PacketPool) claim(from int) int {
	for i := from; i < len(p.slots); i++ {
		if !p.slots[i].Active {
			p.slots[i] = Packet{
				Active:  true,
				Target:  noIndex,
				Current: noIndex,
				Anchor:  noIndex,
				Size:    requestSize,
				State:   StateMoving,
			}
			return i
		}
	}
	return -1
}

// release deactivates slot i.
func (p *PacketPool) release(i int) {
	p.slots[i].Active = false
}

// ActiveCount returns the number of active slots.
func (p *PacketPool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Active {
			n++
		}
	}
	return n
}

// releaseAll deactivates every slot.
func (p *PacketPool) releaseAll() {
	for i := range p.slots {
		p.slots[i].Active = false
	}
}
