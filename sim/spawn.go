package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// defaultDebugSpeed is the nominal speed given to debug-spawned packets.
const defaultDebugSpeed float32 = 3.0

// SpawnTask is a pending, linearly ramped packet emission.
// A task is removed once Emitted reaches Total.
type SpawnTask struct {
	X, Y          float32 // origin
	DestX, DestY  float32 // fixed destination; used only when TargetNode is noIndex
	TargetNode    int     // node index to chase, or noIndex for a fixed destination
	Total         int
	Emitted       int
	RampMs        float64 // emission spread; <= 0 emits everything at once
	BaseSpeed     float32
	SpeedVariance float32
	Type          PacketType
	Complexity    uint8
	RegisteredAt  float64 // virtual clock at registration
}

// due returns how many packets the ramp says should have been emitted by now.
func (t *SpawnTask) due(now float64) int {
	if t.RampMs <= 0 {
		return t.Total
	}
	progress := math.Min(1, (now-t.RegisteredAt)/t.RampMs)
	if progress < 0 {
		progress = 0
	}
	return int(float64(t.Total) * progress)
}

// RegisterSpawn schedules count packets from (x, y) flying freely toward
// (targetX, targetY), spread linearly over rampMs.
func (e *Engine) RegisterSpawn(x, y, targetX, targetY float32, count int, rampMs float64,
	baseSpeed, speedVariance float32, packetType PacketType, complexity uint8) {
	e.spawns = append(e.spawns, &SpawnTask{
		X:             x,
		Y:             y,
		DestX:         targetX,
		DestY:         targetY,
		TargetNode:    noIndex,
		Total:         max(count, 0),
		RampMs:        rampMs,
		BaseSpeed:     baseSpeed,
		SpeedVariance: speedVariance,
		Type:          packetType,
		Complexity:    complexity,
		RegisteredAt:  e.clock,
	})
	logrus.Debugf("[t=%.1f] spawn registered: %d packets from (%.1f, %.1f) to (%.1f, %.1f), ramp=%.0fms, speed=%.2f±%.2f",
		e.clock, count, x, y, targetX, targetY, rampMs, baseSpeed, speedVariance)
}

// RegisterSpawnToNode schedules count packets from (x, y) chasing the node at
// index targetNode, spread linearly over rampMs.
func (e *Engine) RegisterSpawnToNode(x, y float32, targetNode int, count int, rampMs float64,
	baseSpeed, speedVariance float32, packetType PacketType, complexity uint8) {
	e.spawns = append(e.spawns, &SpawnTask{
		X:             x,
		Y:             y,
		TargetNode:    targetNode,
		Total:         max(count, 0),
		RampMs:        rampMs,
		BaseSpeed:     baseSpeed,
		SpeedVariance: speedVariance,
		Type:          packetType,
		Complexity:    complexity,
		RegisteredAt:  e.clock,
	})
	logrus.Debugf("[t=%.1f] spawn registered: %d packets from (%.1f, %.1f) to node[%d], ramp=%.0fms, speed=%.2f±%.2f",
		e.clock, count, x, y, targetNode, rampMs, baseSpeed, speedVariance)
}

// DebugSpawn immediately emits up to count free-flight packets at (x, y)
// scattered in random directions. No ramp, no node target.
func (e *Engine) DebugSpawn(x, y float32, count int) {
	emitted := 0
	for cursor := 0; emitted < count; {
		idx := e.pool.claim(cursor)
		if idx < 0 {
			break
		}
		p := e.pool.At(idx)
		p.X, p.Y = x, y
		p.VX = (float32(e.rng.Float64()) - 0.5) * 4
		p.VY = (float32(e.rng.Float64()) - 0.5) * 4
		p.Speed = defaultDebugSpeed
		p.Type = PacketNormal
		p.Complexity = 10
		p.SpawnedAt = e.clock
		emitted++
		cursor = idx + 1
	}
	e.stats.Spawned += emitted
	logrus.Debugf("[t=%.1f] debug spawn: %d packets at (%.1f, %.1f)", e.clock, emitted, x, y)
}

// emitSpawns runs the ramp of every pending task and removes finished tasks.
func (e *Engine) emitSpawns() {
	pending := e.spawns[:0]
	for _, task := range e.spawns {
		if toEmit := task.due(e.clock) - task.Emitted; toEmit > 0 {
			emitted := e.emit(task, toEmit)
			task.Emitted += emitted
			e.stats.Spawned += emitted
		}
		if task.Emitted < task.Total {
			pending = append(pending, task)
		}
	}
	clear(e.spawns[len(pending):])
	e.spawns = pending
}

// emit claims up to n first-fit slots for the task and returns how many
// packets were actually emitted. A full pool leaves the rest for later ticks.
func (e *Engine) emit(task *SpawnTask, n int) int {
	emitted := 0
	for cursor := 0; emitted < n; {
		idx := e.pool.claim(cursor)
		if idx < 0 {
			break
		}
		cursor = idx + 1
		emitted++

		p := e.pool.At(idx)
		p.X, p.Y = task.X, task.Y
		p.Speed = task.BaseSpeed + (float32(e.rng.Float64())-0.5)*2*task.SpeedVariance
		p.Type = task.Type
		p.Complexity = task.Complexity
		p.SpawnedAt = e.clock

		if task.TargetNode != noIndex {
			p.Target = task.TargetNode
			continue
		}
		dx := task.DestX - task.X
		dy := task.DestY - task.Y
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		dirX, dirY := float32(1), float32(0)
		if dist > 0 {
			dirX, dirY = dx/dist, dy/dist
		}
		p.VX = dirX * p.Speed
		p.VY = dirY * p.Speed
	}
	return emitted
}
