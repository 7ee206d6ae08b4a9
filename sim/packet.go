// Defines the Packet record that models one unit of traffic in the simulation.
// Tracks position, lifecycle state, trip direction and the worker anchor used
// to route the response back through the same worker.

package sim

import (
	"fmt"
	"strings"
)

// PacketType is a coarse, advisory traffic class.
type PacketType uint32

const (
	PacketNormal PacketType = iota
	PacketSynFlood
	PacketHeavyTask
	PacketKiller
)

// ParsePacketType converts a stage-file packet type name into a PacketType.
// Unknown names map to PacketNormal.
func ParsePacketType(name string) PacketType {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SYN_FLOOD", "SYNFLOOD":
		return PacketSynFlood
	case "HEAVY_TASK", "HEAVYTASK":
		return PacketHeavyTask
	case "KILLER":
		return PacketKiller
	default:
		return PacketNormal
	}
}

func (t PacketType) String() string {
	switch t {
	case PacketNormal:
		return "NORMAL"
	case PacketSynFlood:
		return "SYN_FLOOD"
	case PacketHeavyTask:
		return "HEAVY_TASK"
	case PacketKiller:
		return "KILLER"
	default:
		return fmt.Sprintf("PacketType(%d)", uint32(t))
	}
}

// PacketState represents the lifecycle state of an active packet.
type PacketState int

const (
	StateMoving     PacketState = iota // travelling toward Target (or free flight)
	StateProcessing                    // holds a service slot at Current
	StateQueued                        // holds a queue slot at Current
)

func (s PacketState) String() string {
	switch s {
	case StateMoving:
		return "moving"
	case StateProcessing:
		return "processing"
	case StateQueued:
		return "queued"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// noIndex marks an unset node reference on a packet.
	noIndex = -1

	// requestSize is the size of every freshly spawned packet.
	requestSize float32 = 1.0
)

// Packet is one slot of the packet pool. A packet with Active == false has
// no invariants and may be overwritten by the next emission.
type Packet struct {
	X, Y       float32
	VX, VY     float32 // free-flight velocity; zero when chasing a node
	Active     bool
	Type       PacketType
	Complexity uint8 // advisory
	Target     int   // node index being chased; noIndex = free flight
	Speed      float32
	State      PacketState
	Current    int  // node index holding the packet; noIndex while in transit
	IsResponse bool // true on the return trip
	Size       float32
	Anchor     int     // worker visited on the outbound trip; noIndex = unset
	SpawnedAt  float64 // virtual clock at emission
}

func (p Packet) String() string {
	return fmt.Sprintf("Packet: (pos: %.1f,%.1f, State: %s, Target: %d, Current: %d, Response: %v, Size: %.1f)",
		p.X, p.Y, p.State, p.Target, p.Current, p.IsResponse, p.Size)
}

// moveTo retargets the packet toward a node, leaving it in transit at (x, y).
func (p *Packet) moveTo(target int, x, y float32) {
	p.Target = target
	p.Current = noIndex
	p.State = StateMoving
	p.X = x
	p.Y = y
}
