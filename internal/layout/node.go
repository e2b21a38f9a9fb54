package layout

import (
	"fmt"
	"math"
)

// Node is a single body in the simulation. Positions are in layout space and
// the radius drives minimum separation during collision resolution. IDs must
// be unique within one run and stay stable for its lifetime.
//
// Velocities are carried for hosts that animate between snapshots; the
// collision solver neither reads nor writes them.
type Node struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
}

// NodeUpdate carries an authoritative position for a single node, typically
// sourced from a pointer drag in the rendering client.
type NodeUpdate struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Validate reports whether the node can enter a simulation.
func (n Node) Validate() error {
	if !isFinite(n.Radius) || n.Radius <= 0 {
		return fmt.Errorf("radius must be positive and finite, got %v", n.Radius)
	}
	if !isFinite(n.X) || !isFinite(n.Y) {
		return fmt.Errorf("position must be finite, got (%v, %v)", n.X, n.Y)
	}
	if !isFinite(n.VX) || !isFinite(n.VY) {
		return fmt.Errorf("velocity must be finite, got (%v, %v)", n.VX, n.VY)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
