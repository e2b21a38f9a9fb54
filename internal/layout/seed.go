package layout

import "math"

// DefaultSeedSpacing spreads typical visualization radii (roughly 10 to 25
// units) far enough apart that the collision pass only needs local
// adjustments.
const DefaultSeedSpacing = 40.0

// goldenAngle in radians. Successive turns by this angle never realign, so
// spiral arms do not stack.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// SeedSpiral returns a copy of nodes arranged on a sunflower spiral around
// the origin: node i sits at radius spacing*sqrt(i), rotated i golden
// angles. Hosts call a seed function before Init so the engine starts from a
// spread arrangement instead of a pile at the origin. A spacing of zero or
// less selects DefaultSeedSpacing.
func SeedSpiral(nodes []Node, spacing float64) []Node {
	if spacing <= 0 {
		spacing = DefaultSeedSpacing
	}

	out := make([]Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		angle := float64(i) * goldenAngle
		radius := spacing * math.Sqrt(float64(i))
		out[i].X = radius * math.Cos(angle)
		out[i].Y = radius * math.Sin(angle)
	}
	return out
}

// SeedRing returns a copy of nodes spaced evenly on a single circle sized so
// each node gets spacing units of arc. Suits small graphs where a spiral
// wastes the center. A spacing of zero or less selects DefaultSeedSpacing.
func SeedRing(nodes []Node, spacing float64) []Node {
	if spacing <= 0 {
		spacing = DefaultSeedSpacing
	}

	out := make([]Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}

	radius := spacing * float64(len(out)) / (2 * math.Pi)
	if len(out) == 1 {
		radius = 0
	}
	for i := range out {
		angle := 2 * math.Pi * float64(i) / float64(len(out))
		out[i].X = radius * math.Cos(angle)
		out[i].Y = radius * math.Sin(angle)
	}
	return out
}
