// Package domain defines the core data model for the Archivum application.
//
// This package contains the entities that make up an investigative document
// archive and the relationships between them, along with the derived graph
// view consumed by the visualization layer.
//
// # Core Types
//
// Entity represents a person, organization, location, or event extracted
// from the archived corpus. Relationship links two entities with a typed,
// weighted association. Document is one archived source file, and
// Annotation is an operator note attached to an entity or document.
//
// # Derived Views
//
// Graph is the relationship-network view: entities become sized nodes
// (radius derived from category and mention count) and relationships become
// weighted edges. The graph view is what the layout engine simulates and
// the browser renders.
//
// Fragment is a partial archive used by import, export, and ingest
// reconciliation.
//
// # Design Principles
//
// - Types are plain serializable records with no behavior beyond validation
// - Validation lives next to the type it guards
// - Derived views are computed, never stored
package domain
