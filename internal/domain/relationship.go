package domain

import "fmt"

// RelationshipType classifies how two entities are associated.
type RelationshipType string

const (
	RelationAssociate     RelationshipType = "associate"
	RelationTravel        RelationshipType = "travel"
	RelationFinancial     RelationshipType = "financial"
	RelationLegal         RelationshipType = "legal"
	RelationMentionedWith RelationshipType = "mentioned_with"
)

// RelationshipTypes lists every valid relationship type.
var RelationshipTypes = []RelationshipType{
	RelationAssociate,
	RelationTravel,
	RelationFinancial,
	RelationLegal,
	RelationMentionedWith,
}

// ValidRelationshipType reports whether t is a known relationship type.
func ValidRelationshipType(t RelationshipType) bool {
	for _, known := range RelationshipTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Relationship links two entities. Weight expresses association strength,
// typically the number of documents the pair co-occurs in, normalized by
// whatever produced the data.
type Relationship struct {
	ID     int64            `json:"id"`
	FromID int64            `json:"from_id"`
	ToID   int64            `json:"to_id"`
	Type   RelationshipType `json:"type"`
	Weight float64          `json:"weight"`
}

// NewRelationship creates a relationship with weight 1.
func NewRelationship(fromID, toID int64, relType RelationshipType) *Relationship {
	return &Relationship{
		FromID: fromID,
		ToID:   toID,
		Type:   relType,
		Weight: 1,
	}
}

// Key returns a direction-independent identity used for deduplication
// during import. Endpoints are normalized so A-B and B-A collapse.
func (r *Relationship) Key() string {
	from, to := r.FromID, r.ToID
	if from > to {
		from, to = to, from
	}
	return fmt.Sprintf("%d-%d-%s", from, to, r.Type)
}

// Normalize orders the endpoints so the lower entity ID comes first.
// Storage dedupes on the normalized pair, matching Key.
func (r *Relationship) Normalize() {
	if r.FromID > r.ToID {
		r.FromID, r.ToID = r.ToID, r.FromID
	}
}

// Validate checks the relationship is storable.
func (r *Relationship) Validate() error {
	if r.FromID == r.ToID {
		return fmt.Errorf("relationship cannot link entity %d to itself", r.FromID)
	}
	if !ValidRelationshipType(r.Type) {
		return fmt.Errorf("unknown relationship type %q", r.Type)
	}
	if r.Weight < 0 {
		return fmt.Errorf("relationship weight must not be negative, got %v", r.Weight)
	}
	return nil
}
