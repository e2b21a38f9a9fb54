package repository

import (
	"context"

	"archivum/internal/domain"
)

// Repository defines the interface for archive data access
type Repository interface {
	// Entity operations
	CreateEntity(ctx context.Context, entity *domain.Entity) error
	GetEntity(ctx context.Context, id int64) (*domain.Entity, error)
	GetEntityByName(ctx context.Context, name string, category domain.EntityCategory) (*domain.Entity, error)
	ListEntities(ctx context.Context, category, search string) ([]*domain.Entity, error)
	UpdateEntity(ctx context.Context, entity *domain.Entity) error
	DeleteEntity(ctx context.Context, id int64) error

	// Relationship operations
	CreateRelationship(ctx context.Context, rel *domain.Relationship) error
	GetRelationship(ctx context.Context, id int64) (*domain.Relationship, error)
	ListRelationships(ctx context.Context, relType string) ([]*domain.Relationship, error)
	UpdateRelationship(ctx context.Context, rel *domain.Relationship) error
	DeleteRelationship(ctx context.Context, id int64) error

	// Document operations
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)
	GetDocumentByURL(ctx context.Context, sourceURL string) (*domain.Document, error)
	ListDocuments(ctx context.Context, dataset string, entityID int64) ([]*domain.Document, error)
	LinkMention(ctx context.Context, documentID, entityID int64) error

	// Annotation operations
	CreateAnnotation(ctx context.Context, annotation *domain.Annotation) error
	ListAnnotations(ctx context.Context, entityID, documentID *int64) ([]*domain.Annotation, error)
	DeleteAnnotation(ctx context.Context, id int64) error

	// Bulk operations
	ImportFragment(ctx context.Context, fragment *domain.Fragment, strategy string) (map[string]int, error)
	ExportFragment(ctx context.Context) (*domain.Fragment, error)
	ClearArchive(ctx context.Context) error

	// Close releases resources
	Close() error
}
