package service

import (
	"bytes"
	"context"
	"fmt"

	"archivum/internal/codec"
	"archivum/internal/domain"
	"archivum/internal/repository"
)

// ArchiveService provides business logic for the document corpus and
// operator annotations.
type ArchiveService struct {
	repo     repository.Repository
	eventBus *EventBus
}

// NewArchiveService creates a new archive service
func NewArchiveService(repo repository.Repository, eventBus *EventBus) *ArchiveService {
	return &ArchiveService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// GetDocument retrieves a single document by ID
func (s *ArchiveService) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %d not found", id)
	}
	return doc, nil
}

// ListDocuments returns documents, optionally filtered by dataset and by a
// mentioned entity
func (s *ArchiveService) ListDocuments(ctx context.Context, dataset string, entityID int64) ([]*domain.Document, error) {
	return s.repo.ListDocuments(ctx, dataset, entityID)
}

// AddDocument registers a document and links the entities it mentions.
// Missing dataset and media type fields are inferred from the source URL.
func (s *ArchiveService) AddDocument(ctx context.Context, doc *domain.Document, entityIDs []int64) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.GetDocumentByURL(ctx, doc.SourceURL)
	if err != nil {
		return fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("document %s already archived", doc.SourceURL)
	}

	if doc.MediaType == "" {
		doc.MediaType = domain.MediaTypeForURL(doc.SourceURL)
	}
	if doc.Dataset == "" {
		doc.Dataset = domain.DatasetForURL(doc.SourceURL)
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	for _, entityID := range entityIDs {
		if err := s.LinkMention(ctx, doc.ID, entityID); err != nil {
			return err
		}
	}

	s.eventBus.Publish(Event{Type: EventDocumentAdded, Payload: doc})
	return nil
}

// LinkMention records that a document mentions an entity. Linking is
// idempotent; repeated links do not inflate mention counts.
func (s *ArchiveService) LinkMention(ctx context.Context, documentID, entityID int64) error {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to verify document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document %d not found", documentID)
	}

	entity, err := s.repo.GetEntity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("failed to verify entity: %w", err)
	}
	if entity == nil {
		return fmt.Errorf("entity %d not found", entityID)
	}

	if err := s.repo.LinkMention(ctx, documentID, entityID); err != nil {
		return fmt.Errorf("failed to link mention: %w", err)
	}

	s.eventBus.Publish(Event{
		Type:    EventMentionLinked,
		Payload: map[string]int64{"document_id": documentID, "entity_id": entityID},
	})
	return nil
}

// CreateAnnotation attaches an operator note to an entity, a document, or
// both
func (s *ArchiveService) CreateAnnotation(ctx context.Context, annotation *domain.Annotation) error {
	if err := annotation.Validate(); err != nil {
		return err
	}
	if err := s.verifyAnnotationRefs(ctx, annotation); err != nil {
		return err
	}

	if err := s.repo.CreateAnnotation(ctx, annotation); err != nil {
		return fmt.Errorf("failed to create annotation: %w", err)
	}

	s.eventBus.Publish(Event{Type: EventAnnotationCreated, Payload: annotation})
	return nil
}

// ListAnnotations returns annotations, optionally filtered by the entity or
// document they reference
func (s *ArchiveService) ListAnnotations(ctx context.Context, entityID, documentID *int64) ([]*domain.Annotation, error) {
	return s.repo.ListAnnotations(ctx, entityID, documentID)
}

// DeleteAnnotation removes an annotation
func (s *ArchiveService) DeleteAnnotation(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAnnotation(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{Type: EventAnnotationDeleted, Payload: map[string]int64{"id": id}})
	return nil
}

// ImportManifest registers every document link in a release manifest.
// Manifests carry no entities or relationships, so the import never
// disturbs the graph.
func (s *ArchiveService) ImportManifest(ctx context.Context, data []byte) (*ImportResult, error) {
	fragment, err := codec.NewManifestCodec().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	counts, err := s.repo.ImportFragment(ctx, fragment, "merge")
	if err != nil {
		return nil, err
	}

	result := newImportResult(counts, "merge")
	s.eventBus.Publish(Event{Type: EventDocumentAdded, Payload: result})
	return result, nil
}

// verifyAnnotationRefs checks the referenced entity and document exist so
// callers get a clear error instead of a foreign key failure.
func (s *ArchiveService) verifyAnnotationRefs(ctx context.Context, annotation *domain.Annotation) error {
	if annotation.EntityID != nil {
		entity, err := s.repo.GetEntity(ctx, *annotation.EntityID)
		if err != nil {
			return fmt.Errorf("failed to verify entity: %w", err)
		}
		if entity == nil {
			return fmt.Errorf("entity %d not found", *annotation.EntityID)
		}
	}
	if annotation.DocumentID != nil {
		doc, err := s.repo.GetDocument(ctx, *annotation.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to verify document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("document %d not found", *annotation.DocumentID)
		}
	}
	return nil
}
