package domain

import (
	"fmt"
	"math"

	"archivum/internal/layout"
)

// Graph is the relationship-network view consumed by the layout engine and
// the browser renderer.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is one entity in the visualization. Radius drives both the
// rendered size and the minimum separation the layout engine enforces.
type GraphNode struct {
	ID       int64          `json:"id"`
	Label    string         `json:"label"`
	Category EntityCategory `json:"category"`
	Radius   float64        `json:"radius"`
	Title    string         `json:"title,omitempty"` // Tooltip content
}

// GraphEdge is one relationship in the visualization.
type GraphEdge struct {
	ID     int64            `json:"id"`
	From   int64            `json:"from"`
	To     int64            `json:"to"`
	Type   RelationshipType `json:"type"`
	Weight float64          `json:"weight"`
}

// Base node radii by category.
var categoryRadii = map[EntityCategory]float64{
	CategoryPerson:       18,
	CategoryOrganization: 22,
	CategoryLocation:     16,
	CategoryEvent:        14,
	CategoryOther:        12,
}

// RadiusFor returns the base visual radius for a category. Unknown
// categories get the "other" radius.
func RadiusFor(c EntityCategory) float64 {
	if r, ok := categoryRadii[c]; ok {
		return r
	}
	return categoryRadii[CategoryOther]
}

// NodeRadius combines the category base radius with a logarithmic boost for
// heavily mentioned entities, capped so no node dwarfs the graph.
func NodeRadius(e Entity) float64 {
	r := RadiusFor(e.Category)
	if e.MentionCount > 0 {
		boost := 2 * math.Log1p(float64(e.MentionCount))
		if boost > 8 {
			boost = 8
		}
		r += boost
	}
	return r
}

// DeriveGraph converts entities and relationships into the visualization
// view. Relationships referencing unknown entities are skipped; repository
// cascades normally prevent them, but imported fragments can be ragged.
func DeriveGraph(entities []Entity, relationships []Relationship) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, len(entities)),
		Edges: make([]GraphEdge, 0, len(relationships)),
	}

	known := make(map[int64]bool, len(entities))
	for _, e := range entities {
		known[e.ID] = true
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:       e.ID,
			Label:    e.Name,
			Category: e.Category,
			Radius:   NodeRadius(e),
			Title:    buildTooltip(e),
		})
	}

	for _, r := range relationships {
		if !known[r.FromID] || !known[r.ToID] {
			continue
		}
		graph.Edges = append(graph.Edges, GraphEdge{
			ID:     r.ID,
			From:   r.FromID,
			To:     r.ToID,
			Type:   r.Type,
			Weight: r.Weight,
		})
	}

	return graph
}

// LayoutNodes lowers the graph view into engine nodes. Positions start at
// the origin; hosts seed a spread before starting a simulation.
func LayoutNodes(g *Graph) []layout.Node {
	nodes := make([]layout.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, layout.Node{
			ID:     n.ID,
			Radius: n.Radius,
		})
	}
	return nodes
}

func buildTooltip(e Entity) string {
	tooltip := fmt.Sprintf("%s\n%s", e.Name, e.Category)
	if e.MentionCount > 0 {
		tooltip += fmt.Sprintf("\n%d mentions", e.MentionCount)
	}
	if e.Description != "" {
		tooltip += "\n" + e.Description
	}
	return tooltip
}
