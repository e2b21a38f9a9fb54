package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"archivum/internal/codec"
	"archivum/internal/domain"
	"archivum/internal/repository"
)

// GraphService provides business logic for entity and relationship
// operations, including the layout graph view and fragment import/export.
type GraphService struct {
	repo     repository.Repository
	eventBus *EventBus
}

// NewGraphService creates a new graph service
func NewGraphService(repo repository.Repository, eventBus *EventBus) *GraphService {
	return &GraphService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// GetEntity retrieves a single entity by ID
func (s *GraphService) GetEntity(ctx context.Context, id int64) (*domain.Entity, error) {
	entity, err := s.repo.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("entity %d not found", id)
	}
	return entity, nil
}

// ListEntities returns entities, optionally filtered by category and a
// name/description search term
func (s *GraphService) ListEntities(ctx context.Context, category, search string) ([]*domain.Entity, error) {
	return s.repo.ListEntities(ctx, category, search)
}

// CreateEntity creates a new entity
func (s *GraphService) CreateEntity(ctx context.Context, entity *domain.Entity) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.GetEntityByName(ctx, entity.Name, entity.Category)
	if err != nil {
		return fmt.Errorf("failed to check existing entity: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("entity %q already exists in category %s", entity.Name, entity.Category)
	}

	if err := s.repo.CreateEntity(ctx, entity); err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	s.eventBus.Publish(Event{Type: EventEntityCreated, Payload: entity})
	return nil
}

// UpdateEntity updates an existing entity
func (s *GraphService) UpdateEntity(ctx context.Context, entity *domain.Entity) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpdateEntity(ctx, entity); err != nil {
		return err
	}

	s.eventBus.Publish(Event{Type: EventEntityUpdated, Payload: entity})
	return nil
}

// DeleteEntity removes an entity and, through cascade, its relationships,
// mention links, and annotations
func (s *GraphService) DeleteEntity(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEntity(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{Type: EventEntityDeleted, Payload: map[string]int64{"id": id}})
	return nil
}

// GetRelationship retrieves a single relationship by ID
func (s *GraphService) GetRelationship(ctx context.Context, id int64) (*domain.Relationship, error) {
	rel, err := s.repo.GetRelationship(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, fmt.Errorf("relationship %d not found", id)
	}
	return rel, nil
}

// ListRelationships returns relationships, optionally filtered by type
func (s *GraphService) ListRelationships(ctx context.Context, relType string) ([]*domain.Relationship, error) {
	return s.repo.ListRelationships(ctx, relType)
}

// CreateRelationship creates a new relationship between two entities
func (s *GraphService) CreateRelationship(ctx context.Context, rel *domain.Relationship) error {
	if rel.Weight == 0 {
		rel.Weight = 1
	}
	if err := rel.Validate(); err != nil {
		return err
	}
	if err := s.verifyEndpoints(ctx, rel); err != nil {
		return err
	}

	if err := s.repo.CreateRelationship(ctx, rel); err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}

	s.eventBus.Publish(Event{Type: EventRelationshipCreated, Payload: rel})
	return nil
}

// UpdateRelationship updates an existing relationship
func (s *GraphService) UpdateRelationship(ctx context.Context, rel *domain.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpdateRelationship(ctx, rel); err != nil {
		return err
	}

	s.eventBus.Publish(Event{Type: EventRelationshipUpdated, Payload: rel})
	return nil
}

// DeleteRelationship removes a relationship
func (s *GraphService) DeleteRelationship(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRelationship(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{Type: EventRelationshipDeleted, Payload: map[string]int64{"id": id}})
	return nil
}

// LayoutGraph derives the node/edge view the layout engine and renderers
// consume. Dangling relationships are dropped during derivation.
func (s *GraphService) LayoutGraph(ctx context.Context) (*domain.Graph, error) {
	entityPtrs, err := s.repo.ListEntities(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	relPtrs, err := s.repo.ListRelationships(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	entities := make([]domain.Entity, len(entityPtrs))
	for i, e := range entityPtrs {
		entities[i] = *e
	}
	relationships := make([]domain.Relationship, len(relPtrs))
	for i, r := range relPtrs {
		relationships[i] = *r
	}

	return domain.DeriveGraph(entities, relationships), nil
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	EntitiesCreated      int    `json:"entities_created"`
	EntitiesUpdated      int    `json:"entities_updated"`
	RelationshipsCreated int    `json:"relationships_created"`
	RelationshipsUpdated int    `json:"relationships_updated"`
	RelationshipsSkipped int    `json:"relationships_skipped"`
	DocumentsCreated     int    `json:"documents_created"`
	DocumentsUpdated     int    `json:"documents_updated"`
	Strategy             string `json:"strategy"`
}

func newImportResult(counts map[string]int, strategy string) *ImportResult {
	return &ImportResult{
		EntitiesCreated:      counts["entities_created"],
		EntitiesUpdated:      counts["entities_updated"],
		RelationshipsCreated: counts["relationships_created"],
		RelationshipsUpdated: counts["relationships_updated"],
		RelationshipsSkipped: counts["relationships_skipped"],
		DocumentsCreated:     counts["documents_created"],
		DocumentsUpdated:     counts["documents_updated"],
		Strategy:             strategy,
	}
}

// ImportJSON imports archive data from a JSON fragment
func (s *GraphService) ImportJSON(ctx context.Context, data []byte, strategy string) (*ImportResult, error) {
	fragment, err := codec.NewJSONCodec().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return s.ImportFragment(ctx, fragment, strategy)
}

// ImportYAML imports archive data from a YAML fragment
func (s *GraphService) ImportYAML(ctx context.Context, data []byte, strategy string) (*ImportResult, error) {
	fragment, err := codec.NewYAMLCodec().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return s.ImportFragment(ctx, fragment, strategy)
}

// ImportFragment imports an archive fragment with the specified strategy
func (s *GraphService) ImportFragment(ctx context.Context, fragment *domain.Fragment, strategy string) (*ImportResult, error) {
	result, err := s.importFragment(ctx, fragment, strategy)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{Type: EventArchiveImported, Payload: result})
	return result, nil
}

// SyncFragment merges a fragment loaded by an ingest source. Document-only
// fragments announce themselves as document changes so layout sessions are
// not restarted for syncs that cannot move the graph.
func (s *GraphService) SyncFragment(ctx context.Context, source string, fragment *domain.Fragment) (*ImportResult, error) {
	result, err := s.importFragment(ctx, fragment, "merge")
	if err != nil {
		return nil, err
	}

	eventType := EventArchiveSynced
	if len(fragment.Entities) == 0 && len(fragment.Relationships) == 0 {
		eventType = EventDocumentAdded
	}
	s.eventBus.Publish(Event{
		Type:    eventType,
		Payload: map[string]interface{}{"source": source, "result": result},
	})
	return result, nil
}

// importFragment validates and stores a fragment without publishing;
// callers announce the outcome with the event type that fits their path
func (s *GraphService) importFragment(ctx context.Context, fragment *domain.Fragment, strategy string) (*ImportResult, error) {
	if strategy == "" {
		strategy = "merge"
	}
	if strategy != "merge" && strategy != "replace" {
		return nil, fmt.Errorf("invalid strategy %s, must be 'merge' or 'replace'", strategy)
	}

	if err := validateFragment(fragment); err != nil {
		return nil, err
	}

	counts, err := s.repo.ImportFragment(ctx, fragment, strategy)
	if err != nil {
		return nil, err
	}

	return newImportResult(counts, strategy), nil
}

// ExportJSON exports the archive as a JSON fragment
func (s *GraphService) ExportJSON(ctx context.Context) ([]byte, error) {
	fragment, err := s.repo.ExportFragment(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := codec.NewJSONCodec().Export(fragment, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExportYAML exports the archive as a YAML fragment
func (s *GraphService) ExportYAML(ctx context.Context, w io.Writer) error {
	fragment, err := s.repo.ExportFragment(ctx)
	if err != nil {
		return err
	}

	return codec.NewYAMLCodec().Export(fragment, w)
}

// ClearArchive removes all entities, relationships, documents, and
// annotations
func (s *GraphService) ClearArchive(ctx context.Context) error {
	if err := s.repo.ClearArchive(ctx); err != nil {
		return err
	}

	s.eventBus.Publish(Event{Type: EventArchiveCleared, Payload: map[string]string{"action": "cleared"}})
	return nil
}

// verifyEndpoints checks both relationship endpoints exist before creation,
// so callers get a clear error instead of a foreign key failure.
func (s *GraphService) verifyEndpoints(ctx context.Context, rel *domain.Relationship) error {
	from, err := s.repo.GetEntity(ctx, rel.FromID)
	if err != nil {
		return fmt.Errorf("failed to verify from entity: %w", err)
	}
	if from == nil {
		return fmt.Errorf("from entity %d not found", rel.FromID)
	}

	to, err := s.repo.GetEntity(ctx, rel.ToID)
	if err != nil {
		return fmt.Errorf("failed to verify to entity: %w", err)
	}
	if to == nil {
		return fmt.Errorf("to entity %d not found", rel.ToID)
	}

	return nil
}

// validateFragment normalizes and checks every record in an import
// fragment. Bulk corpus extracts are lenient: a missing category defaults
// to other, a missing weight to 1.
func validateFragment(fragment *domain.Fragment) error {
	for i := range fragment.Entities {
		e := &fragment.Entities[i]
		if e.Category == "" {
			e.Category = domain.CategoryOther
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
	}
	for i := range fragment.Relationships {
		r := &fragment.Relationships[i]
		if r.Weight == 0 {
			r.Weight = 1
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("relationship %d: %w", i, err)
		}
	}
	for i := range fragment.Documents {
		if err := fragment.Documents[i].Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}
