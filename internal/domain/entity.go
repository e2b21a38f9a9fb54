package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityCategory classifies what kind of thing an entity is.
type EntityCategory string

const (
	CategoryPerson       EntityCategory = "person"
	CategoryOrganization EntityCategory = "organization"
	CategoryLocation     EntityCategory = "location"
	CategoryEvent        EntityCategory = "event"
	CategoryOther        EntityCategory = "other"
)

// Categories lists every valid entity category.
var Categories = []EntityCategory{
	CategoryPerson,
	CategoryOrganization,
	CategoryLocation,
	CategoryEvent,
	CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c EntityCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Entity represents a person, organization, location, or event extracted
// from the archived corpus. MentionCount is maintained by the repository
// from document mention links and feeds the node radius in the graph view.
type Entity struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Category     EntityCategory `json:"category"`
	Description  string         `json:"description,omitempty"`
	MentionCount int            `json:"mention_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewEntity creates an entity with timestamps initialized.
func NewEntity(name string, category EntityCategory) *Entity {
	now := time.Now()
	return &Entity{
		Name:      name,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the entity is storable.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity name is required")
	}
	if !ValidCategory(e.Category) {
		return fmt.Errorf("unknown entity category %q", e.Category)
	}
	return nil
}
