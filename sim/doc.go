// Package sim provides the discrete-time traffic routing and admission engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - packet.go: Packet lifecycle (moving → processing|queued → moving → … → terminal)
//   - node.go: Node kinds, performance specs and runtime state
//   - engine.go: The Engine, its Tick phase order and read-only queries
//
// Then, in Tick phase order:
//   - spawn.go: ramped emission of spawn tasks into the packet pool (pool.go)
//   - admission.go: service countdown, queue promotion and serve/queue/drop decisions
//   - motion.go: vector chase toward target nodes, free flight, arrival detection
//   - routing.go: the (kind, direction) → next node table and least-loaded selection
//
// # Architecture
//
// Packets and nodes refer to each other by integer index into the engine's
// pool and registry; there are no pointers between them. The engine is a plain
// value owned by its driver; there is no package-level instance.
//
// Sub-packages:
//   - sim/trace/: admission and routing decision records
//   - sim/stage/: declarative stage files (YAML, JSON, HCL) and wave triggering
//   - sim/observe/: Prometheus collector over engine state
package sim
