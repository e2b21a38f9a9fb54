package layout

import (
	"context"
	"sync"
)

// Controller owns an engine and its goroutines on behalf of a host view and
// translates engine messages into callbacks. Close must be called when the
// view goes away or the goroutines leak.
type Controller struct {
	engine *Engine
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onTick func(nodes []Node)
	onDone func()
}

// NewController starts an engine with the given tuning. onTick receives a
// complete snapshot after every simulation tick; onDone fires once per run.
// Either callback may be nil. Callbacks are invoked sequentially from a
// single goroutine and should return promptly, since a stalled callback
// stalls snapshot delivery.
func NewController(params Params, onTick func([]Node), onDone func()) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		engine: New(params),
		cancel: cancel,
		onTick: onTick,
		onDone: onDone,
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.engine.Run(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.pump()
	}()

	return c
}

// Start begins a fresh run with the given nodes, superseding any active run.
func (c *Controller) Start(nodes []Node) {
	c.engine.Send(Init{Nodes: nodes})
}

// Drag pins a node to the pointer position. The node stops simulating until
// released but keeps pushing its neighbors away.
func (c *Controller) Drag(id int64, x, y float64) {
	c.engine.Send(UpdateNode{
		Update:  NodeUpdate{ID: id, X: x, Y: y},
		Dragged: &id,
	})
}

// Release drops the drag lock at the final pointer position.
func (c *Controller) Release(id int64, x, y float64) {
	c.engine.Send(UpdateNode{
		Update: NodeUpdate{ID: id, X: x, Y: y},
	})
}

// Stop halts the active run. The engine answers with one Done.
func (c *Controller) Stop() {
	c.engine.Send(Stop{})
}

// Close tears down the engine and waits for its goroutines. No callbacks
// fire after Close returns.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

// pump relays engine output to the host callbacks until the engine exits.
func (c *Controller) pump() {
	for {
		select {
		case msg := <-c.engine.out:
			switch m := msg.(type) {
			case NodesTick:
				if c.onTick != nil {
					c.onTick(m.Nodes)
				}
			case Done:
				if c.onDone != nil {
					c.onDone()
				}
			}
		case <-c.engine.done:
			return
		}
	}
}
