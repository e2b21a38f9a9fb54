// Package layout implements an incremental force-directed layout engine for
// graph visualization.
//
// The engine runs on a dedicated goroutine and communicates with its host
// exclusively through channels carrying a small tagged-union message type
// (Msg). The host seeds initial positions (see SeedSpiral), sends Init, and
// receives a complete position snapshot after every simulation tick until
// the run terminates.
//
// # Simulation Model
//
// Each tick resolves pairwise collisions: nodes closer than their combined
// half-radii scaled by a padding factor are pushed apart along the line
// between their centers, with the displacement scaled by a damping factor so
// overlaps resolve over several ticks. There is no gravity or attraction
// term; the seed arrangement provides global structure and the engine only
// resolves local overlap. Runs are bounded by a fixed tick budget rather
// than a convergence test, so every run terminates.
//
// # Protocol
//
// Host to engine: Init (start or restart), UpdateNode (authoritative
// position for one node, with an optional drag lock), Stop. Engine to host:
// NodesTick (complete snapshot, once per tick) and Done (exactly once per
// run). While a node is drag-locked the engine never moves it, but other
// nodes still push off it.
//
// # Design Principles
//
// - A single goroutine owns all simulation state
// - Queued messages are applied in arrival order before each tick
// - Snapshot emission never blocks the simulation loop
// - Malformed input is dropped and logged, never fatal
package layout
