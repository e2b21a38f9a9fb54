package layout

import (
	"context"
	"log"
	"math"
	"time"
)

// Defaults for Params fields left at zero.
const (
	DefaultPaddingFactor = 1.5
	DefaultDampingFactor = 0.1
	DefaultTickInterval  = 33 * time.Millisecond
	DefaultMaxTicks      = 300
)

// Channel capacities. The inbox absorbs bursts of drag updates between
// ticks; the outbox absorbs a slow consumer before snapshots start dropping.
const (
	inboxSize  = 64
	outboxSize = 64
)

// Params tunes a simulation engine.
type Params struct {
	// PaddingFactor scales the combined half-radii of a pair when computing
	// its minimum separation distance.
	PaddingFactor float64
	// DampingFactor scales per-tick displacement so overlaps resolve over
	// several ticks instead of snapping apart.
	DampingFactor float64
	// TickInterval is the simulation cadence.
	TickInterval time.Duration
	// MaxTicks bounds a run. The budget is fixed regardless of node count so
	// a run always terminates in bounded time.
	MaxTicks int
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		PaddingFactor: DefaultPaddingFactor,
		DampingFactor: DefaultDampingFactor,
		TickInterval:  DefaultTickInterval,
		MaxTicks:      DefaultMaxTicks,
	}
}

func (p Params) withDefaults() Params {
	if p.PaddingFactor <= 0 {
		p.PaddingFactor = DefaultPaddingFactor
	}
	if p.DampingFactor <= 0 {
		p.DampingFactor = DefaultDampingFactor
	}
	if p.TickInterval <= 0 {
		p.TickInterval = DefaultTickInterval
	}
	if p.MaxTicks <= 0 {
		p.MaxTicks = DefaultMaxTicks
	}
	return p
}

// Engine is a collision-resolution simulation driven by a ticker on its own
// goroutine. All simulation state is owned by the Run goroutine; the only
// way in or out is the message channels.
type Engine struct {
	params Params

	in   chan Msg
	out  chan Msg
	done chan struct{}

	// Run goroutine state. Zeroed between runs.
	nodes   map[int64]*Node
	order   []int64
	dragged *int64
	ticks   int
	running bool
}

// New creates an engine. Call Run on its own goroutine to start it.
func New(params Params) *Engine {
	return &Engine{
		params: params.withDefaults(),
		in:     make(chan Msg, inboxSize),
		out:    make(chan Msg, outboxSize),
		done:   make(chan struct{}),
	}
}

// Send queues a control message. It blocks while the inbox is full and
// reports false once the engine has shut down.
func (e *Engine) Send(msg Msg) bool {
	select {
	case e.in <- msg:
		return true
	case <-e.done:
		return false
	}
}

// Out returns the channel carrying NodesTick and Done messages.
func (e *Engine) Out() <-chan Msg {
	return e.out
}

// Run drives the simulation until ctx is canceled. Queued control messages
// are applied in arrival order at the start of each tick, so a Stop that
// arrives mid-tick takes effect at the next tick boundary.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.params.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.drain(ctx)
			e.tick(ctx)
		}
	}
}

// drain applies every queued inbox message in arrival order.
func (e *Engine) drain(ctx context.Context) {
	for {
		select {
		case msg := <-e.in:
			e.apply(ctx, msg)
		default:
			return
		}
	}
}

func (e *Engine) apply(ctx context.Context, msg Msg) {
	switch m := msg.(type) {
	case Init:
		e.start(ctx, m.Nodes)
	case UpdateNode:
		e.update(m)
	case Stop:
		e.halt(ctx)
	default:
		log.Printf("layout: dropping unexpected %T message", msg)
	}
}

// start resets all state and begins a new run. Invalid and duplicate nodes
// are dropped; an init that validates to an empty set terminates
// immediately.
func (e *Engine) start(ctx context.Context, nodes []Node) {
	e.nodes = make(map[int64]*Node, len(nodes))
	e.order = e.order[:0]
	e.dragged = nil
	e.ticks = 0

	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			log.Printf("layout: dropping node %d from init: %v", n.ID, err)
			continue
		}
		if _, dup := e.nodes[n.ID]; dup {
			log.Printf("layout: dropping duplicate node %d from init", n.ID)
			continue
		}
		c := n
		e.nodes[n.ID] = &c
		e.order = append(e.order, n.ID)
	}

	e.running = len(e.order) > 0
	if !e.running {
		// Nothing to simulate.
		e.emitDone(ctx)
	}
}

// update merges one authoritative position and adjusts the drag lock.
// Invalid updates are discarded whole, including their drag side effect.
func (e *Engine) update(m UpdateNode) {
	if !e.running {
		log.Printf("layout: ignoring update for node %d: no active run", m.Update.ID)
		return
	}
	if !isFinite(m.Update.X) || !isFinite(m.Update.Y) {
		log.Printf("layout: ignoring update for node %d: non-finite position", m.Update.ID)
		return
	}
	n, ok := e.nodes[m.Update.ID]
	if !ok {
		log.Printf("layout: ignoring update for unknown node %d", m.Update.ID)
		return
	}
	n.X = m.Update.X
	n.Y = m.Update.Y

	if m.Dragged == nil {
		e.dragged = nil
		return
	}
	if _, ok := e.nodes[*m.Dragged]; !ok {
		log.Printf("layout: ignoring drag lock for unknown node %d", *m.Dragged)
		return
	}
	id := *m.Dragged
	e.dragged = &id
}

// halt ends the active run. A Stop on an idle engine is a no-op so that Done
// is never emitted twice for one run.
func (e *Engine) halt(ctx context.Context) {
	if !e.running {
		return
	}
	e.clear()
	e.emitDone(ctx)
}

// clear discards all run state.
func (e *Engine) clear() {
	e.running = false
	e.nodes = nil
	e.order = nil
	e.dragged = nil
	e.ticks = 0
}

// tick advances the active run by one step and emits a snapshot, then ends
// the run once the budget is spent.
func (e *Engine) tick(ctx context.Context) {
	if !e.running {
		return
	}

	e.step()
	e.ticks++
	e.emitSnapshot()

	if e.ticks >= e.params.MaxTicks {
		e.clear()
		e.emitDone(ctx)
	}
}

// step resolves pairwise collisions in place. Nodes are visited in insertion
// order and each mover sees the displacements already applied this tick.
func (e *Engine) step() {
	for _, ida := range e.order {
		if e.dragged != nil && *e.dragged == ida {
			// Drag-locked nodes never move, but they still repel others.
			continue
		}
		a := e.nodes[ida]
		for _, idb := range e.order {
			if ida == idb {
				continue
			}
			b := e.nodes[idb]

			dx := a.X - b.X
			dy := a.Y - b.Y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist == 0 {
				// Coincident centers give no direction to push along. Leave
				// the pair for a later update to split.
				continue
			}

			minDist := (a.Radius/2 + b.Radius/2) * e.params.PaddingFactor
			if dist >= minDist {
				continue
			}

			overlap := minDist - dist
			a.X += dx / dist * overlap * e.params.DampingFactor
			a.Y += dy / dist * overlap * e.params.DampingFactor
		}
	}
}

// emitSnapshot sends a complete copy of the node set without blocking the
// loop. If the consumer is behind the snapshot is dropped; the next tick
// supersedes it.
func (e *Engine) emitSnapshot() {
	select {
	case e.out <- NodesTick{Nodes: e.snapshot()}:
	default:
		log.Printf("layout: outbox full, dropping snapshot at tick %d", e.ticks)
	}
}

// snapshot copies the node set in insertion order.
func (e *Engine) snapshot() []Node {
	nodes := make([]Node, 0, len(e.order))
	for _, id := range e.order {
		nodes = append(nodes, *e.nodes[id])
	}
	return nodes
}

// emitDone blocks until delivered; termination must not be lost.
func (e *Engine) emitDone(ctx context.Context) {
	select {
	case e.out <- Done{}:
	case <-ctx.Done():
	}
}
