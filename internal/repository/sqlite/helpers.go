package sqlite

import (
	"database/sql"
	"time"

	"archivum/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToTimePtr safely converts sql.NullTime to *time.Time
func nullToTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// nullToInt64Ptr safely converts sql.NullInt64 to *int64
func nullToInt64Ptr(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timePtrToNull safely converts *time.Time to sql.NullTime
func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// int64PtrToNull safely converts *int64 to sql.NullInt64
func int64PtrToNull(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to one of the tables:
// 1. Add the field to the row struct below
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update the matching columns constant - APPEND to end
// 4. Update toDomain() to map the new field
// 5. Add the column to migrate() in sqlite.go
// 6. Update relevant tests
//
// CRITICAL: Column order must match between the columns constant,
// scanArgs(), and every SELECT query using the constant.

// ============================================================================
// Entity Row Scanner
// ============================================================================

// entityRow holds all columns from an entity query for scanning
type entityRow struct {
	ID           int64
	Name         string
	Category     string
	Description  sql.NullString
	MentionCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match entityColumns order exactly:
// id, name, category, description, mention_count, created_at, updated_at
func (r *entityRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,           // 1
		&r.Name,         // 2
		&r.Category,     // 3
		&r.Description,  // 4
		&r.MentionCount, // 5
		&r.CreatedAt,    // 6
		&r.UpdatedAt,    // 7
	}
}

// toDomain converts the scanned row to a domain.Entity
func (r *entityRow) toDomain() *domain.Entity {
	return &domain.Entity{
		ID:           r.ID,
		Name:         r.Name,
		Category:     domain.EntityCategory(r.Category),
		Description:  nullToString(r.Description),
		MentionCount: r.MentionCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// entityColumns returns the SELECT column list for entity queries. The
// mention count is derived from the document_entities join table, so every
// entity read requires the e alias.
const entityColumns = `e.id, e.name, e.category, e.description,
	(SELECT COUNT(*) FROM document_entities de WHERE de.entity_id = e.id),
	e.created_at, e.updated_at`

// ============================================================================
// Relationship Row Scanner
// ============================================================================

// relationshipRow holds all columns from a relationship query for scanning
type relationshipRow struct {
	ID     int64
	FromID int64
	ToID   int64
	Type   string
	Weight float64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match relationshipColumns order exactly:
// id, from_id, to_id, type, weight
func (r *relationshipRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,     // 1
		&r.FromID, // 2
		&r.ToID,   // 3
		&r.Type,   // 4
		&r.Weight, // 5
	}
}

// toDomain converts the scanned row to a domain.Relationship
func (r *relationshipRow) toDomain() *domain.Relationship {
	return &domain.Relationship{
		ID:     r.ID,
		FromID: r.FromID,
		ToID:   r.ToID,
		Type:   domain.RelationshipType(r.Type),
		Weight: r.Weight,
	}
}

// relationshipColumns returns the SELECT column list for relationship queries
const relationshipColumns = `id, from_id, to_id, type, weight`

// ============================================================================
// Document Row Scanner
// ============================================================================

// documentRow holds all columns from a document query for scanning
type documentRow struct {
	ID        int64
	Title     sql.NullString
	SourceURL string
	Dataset   sql.NullString
	MediaType sql.NullString
	FetchedAt sql.NullTime
	CreatedAt time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match documentColumns order exactly:
// id, title, source_url, dataset, media_type, fetched_at, created_at
func (r *documentRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,        // 1
		&r.Title,     // 2
		&r.SourceURL, // 3
		&r.Dataset,   // 4
		&r.MediaType, // 5
		&r.FetchedAt, // 6
		&r.CreatedAt, // 7
	}
}

// toDomain converts the scanned row to a domain.Document
func (r *documentRow) toDomain() *domain.Document {
	return &domain.Document{
		ID:        r.ID,
		Title:     nullToString(r.Title),
		SourceURL: r.SourceURL,
		Dataset:   nullToString(r.Dataset),
		MediaType: nullToString(r.MediaType),
		FetchedAt: nullToTimePtr(r.FetchedAt),
		CreatedAt: r.CreatedAt,
	}
}

// documentColumns returns the SELECT column list for document queries,
// aliased d to survive the mention join in ListDocuments
const documentColumns = `d.id, d.title, d.source_url, d.dataset, d.media_type, d.fetched_at, d.created_at`

// ============================================================================
// Annotation Row Scanner
// ============================================================================

// annotationRow holds all columns from an annotation query for scanning
type annotationRow struct {
	ID         int64
	EntityID   sql.NullInt64
	DocumentID sql.NullInt64
	Author     sql.NullString
	Body       string
	CreatedAt  time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match annotationColumns order exactly:
// id, entity_id, document_id, author, body, created_at
func (r *annotationRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,         // 1
		&r.EntityID,   // 2
		&r.DocumentID, // 3
		&r.Author,     // 4
		&r.Body,       // 5
		&r.CreatedAt,  // 6
	}
}

// toDomain converts the scanned row to a domain.Annotation
func (r *annotationRow) toDomain() *domain.Annotation {
	return &domain.Annotation{
		ID:         r.ID,
		EntityID:   nullToInt64Ptr(r.EntityID),
		DocumentID: nullToInt64Ptr(r.DocumentID),
		Author:     nullToString(r.Author),
		Body:       r.Body,
		CreatedAt:  r.CreatedAt,
	}
}

// annotationColumns returns the SELECT column list for annotation queries
const annotationColumns = `id, entity_id, document_id, author, body, created_at`
