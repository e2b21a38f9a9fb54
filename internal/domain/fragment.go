package domain

// Fragment represents a partial archive for import/export operations and
// ingest reconciliation.
type Fragment struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Documents     []Document     `json:"documents"`
}

// NewFragment creates an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{
		Entities:      make([]Entity, 0),
		Relationships: make([]Relationship, 0),
		Documents:     make([]Document, 0),
	}
}

// AddEntity adds an entity to the fragment.
func (f *Fragment) AddEntity(e Entity) {
	f.Entities = append(f.Entities, e)
}

// AddRelationship adds a relationship to the fragment.
func (f *Fragment) AddRelationship(r Relationship) {
	f.Relationships = append(f.Relationships, r)
}

// AddDocument adds a document to the fragment.
func (f *Fragment) AddDocument(d Document) {
	f.Documents = append(f.Documents, d)
}

// Empty reports whether the fragment carries no data at all.
func (f *Fragment) Empty() bool {
	return len(f.Entities) == 0 && len(f.Relationships) == 0 && len(f.Documents) == 0
}
