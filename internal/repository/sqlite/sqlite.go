package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"archivum/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; a second pooled
	// connection would see an empty schema.
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'other',
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (name, category)
	);

	CREATE TABLE IF NOT EXISTS relationships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		weight REAL NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (from_id, to_id, type),
		FOREIGN KEY (from_id) REFERENCES entities(id) ON DELETE CASCADE,
		FOREIGN KEY (to_id) REFERENCES entities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		source_url TEXT NOT NULL UNIQUE,
		dataset TEXT,
		media_type TEXT,
		fetched_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS document_entities (
		document_id INTEGER NOT NULL,
		entity_id INTEGER NOT NULL,
		PRIMARY KEY (document_id, entity_id),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
		FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS annotations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id INTEGER,
		document_id INTEGER,
		author TEXT,
		body TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_entities_category ON entities(category);
	CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_id);
	CREATE INDEX IF NOT EXISTS idx_documents_dataset ON documents(dataset);
	CREATE INDEX IF NOT EXISTS idx_document_entities_entity ON document_entities(entity_id);
	CREATE INDEX IF NOT EXISTS idx_annotations_entity ON annotations(entity_id);
	CREATE INDEX IF NOT EXISTS idx_annotations_document ON annotations(document_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ============================================================================
// Entity Operations
// ============================================================================

// CreateEntity inserts a new entity and writes the generated ID back.
// Entities are unique per (name, category).
func (r *Repository) CreateEntity(ctx context.Context, entity *domain.Entity) error {
	now := time.Now()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = now
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entities (name, category, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, entity.Name, string(entity.Category), stringToNull(entity.Description), entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entity id: %w", err)
	}
	entity.ID = id
	return nil
}

// GetEntity retrieves a single entity by ID, or nil if absent
func (r *Repository) GetEntity(ctx context.Context, id int64) (*domain.Entity, error) {
	var row entityRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+` FROM entities e WHERE e.id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}
	return row.toDomain(), nil
}

// GetEntityByName retrieves an entity by its unique (name, category) pair,
// or nil if absent
func (r *Repository) GetEntityByName(ctx context.Context, name string, category domain.EntityCategory) (*domain.Entity, error) {
	var row entityRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+` FROM entities e WHERE e.name = ? AND e.category = ?
	`, name, string(category)).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity by name: %w", err)
	}
	return row.toDomain(), nil
}

// ListEntities returns entities ordered by name. A non-empty category
// restricts to that category; a non-empty search matches name or
// description case-insensitively.
func (r *Repository) ListEntities(ctx context.Context, category, search string) ([]*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities e`

	var conds []string
	var args []interface{}
	if category != "" {
		conds = append(conds, "e.category = ?")
		args = append(args, category)
	}
	if search != "" {
		conds = append(conds, "(e.name LIKE ? OR e.description LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.name COLLATE NOCASE, e.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*domain.Entity
	for rows.Next() {
		var row entityRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}
	return entities, nil
}

// UpdateEntity updates name, category, and description by ID
func (r *Repository) UpdateEntity(ctx context.Context, entity *domain.Entity) error {
	entity.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE entities SET name = ?, category = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, entity.Name, string(entity.Category), stringToNull(entity.Description), entity.UpdatedAt, entity.ID)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entity %d not found", entity.ID)
	}
	return nil
}

// DeleteEntity removes an entity. Relationships, mentions, and annotations
// referencing it are removed by CASCADE.
func (r *Repository) DeleteEntity(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entity %d not found", id)
	}
	return nil
}

// ============================================================================
// Relationship Operations
// ============================================================================

// CreateRelationship inserts a new relationship and writes the generated ID
// back. Endpoints are normalized first, so the reverse of an existing pair
// violates the uniqueness constraint rather than storing a duplicate.
func (r *Repository) CreateRelationship(ctx context.Context, rel *domain.Relationship) error {
	rel.Normalize()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO relationships (from_id, to_id, type, weight)
		VALUES (?, ?, ?, ?)
	`, rel.FromID, rel.ToID, string(rel.Type), rel.Weight)
	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read relationship id: %w", err)
	}
	rel.ID = id
	return nil
}

// GetRelationship retrieves a single relationship by ID, or nil if absent
func (r *Repository) GetRelationship(ctx context.Context, id int64) (*domain.Relationship, error) {
	var row relationshipRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+relationshipColumns+` FROM relationships WHERE id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query relationship: %w", err)
	}
	return row.toDomain(), nil
}

// ListRelationships returns relationships ordered by ID, optionally
// restricted to one type
func (r *Repository) ListRelationships(ctx context.Context, relType string) ([]*domain.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships`
	var args []interface{}
	if relType != "" {
		query += ` WHERE type = ?`
		args = append(args, relType)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []*domain.Relationship
	for rows.Next() {
		var row relationshipRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relationships: %w", err)
	}
	return rels, nil
}

// UpdateRelationship updates type and weight by ID. Endpoints are fixed at
// creation; delete and recreate to rewire.
func (r *Repository) UpdateRelationship(ctx context.Context, rel *domain.Relationship) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE relationships SET type = ?, weight = ? WHERE id = ?
	`, string(rel.Type), rel.Weight, rel.ID)
	if err != nil {
		return fmt.Errorf("failed to update relationship: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("relationship %d not found", rel.ID)
	}
	return nil
}

// DeleteRelationship removes a relationship
func (r *Repository) DeleteRelationship(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("relationship %d not found", id)
	}
	return nil
}

// ============================================================================
// Document Operations
// ============================================================================

// CreateDocument inserts a new document and writes the generated ID back.
// Documents are unique per source URL.
func (r *Repository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (title, source_url, dataset, media_type, fetched_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, stringToNull(doc.Title), doc.SourceURL, stringToNull(doc.Dataset),
		stringToNull(doc.MediaType), timePtrToNull(doc.FetchedAt), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read document id: %w", err)
	}
	doc.ID = id
	return nil
}

// GetDocument retrieves a single document by ID, or nil if absent
func (r *Repository) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	var row documentRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents d WHERE d.id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return row.toDomain(), nil
}

// GetDocumentByURL retrieves a document by its unique source URL, or nil
// if absent
func (r *Repository) GetDocumentByURL(ctx context.Context, sourceURL string) (*domain.Document, error) {
	var row documentRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents d WHERE d.source_url = ?
	`, sourceURL).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document by url: %w", err)
	}
	return row.toDomain(), nil
}

// ListDocuments returns documents newest first. A non-empty dataset
// restricts to that dataset; a non-zero entityID restricts to documents
// mentioning that entity.
func (r *Repository) ListDocuments(ctx context.Context, dataset string, entityID int64) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d`

	var conds []string
	var args []interface{}
	if entityID != 0 {
		query += ` JOIN document_entities de ON de.document_id = d.id`
		conds = append(conds, "de.entity_id = ?")
		args = append(args, entityID)
	}
	if dataset != "" {
		conds = append(conds, "d.dataset = ?")
		args = append(args, dataset)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY d.created_at DESC, d.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var row documentRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// LinkMention records that a document mentions an entity. Linking the same
// pair twice is a no-op.
func (r *Repository) LinkMention(ctx context.Context, documentID, entityID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO document_entities (document_id, entity_id)
		VALUES (?, ?)
		ON CONFLICT (document_id, entity_id) DO NOTHING
	`, documentID, entityID)
	if err != nil {
		return fmt.Errorf("failed to link mention: %w", err)
	}
	return nil
}

// ============================================================================
// Annotation Operations
// ============================================================================

// CreateAnnotation inserts a new annotation and writes the generated ID back
func (r *Repository) CreateAnnotation(ctx context.Context, annotation *domain.Annotation) error {
	if annotation.CreatedAt.IsZero() {
		annotation.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO annotations (entity_id, document_id, author, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, int64PtrToNull(annotation.EntityID), int64PtrToNull(annotation.DocumentID),
		stringToNull(annotation.Author), annotation.Body, annotation.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read annotation id: %w", err)
	}
	annotation.ID = id
	return nil
}

// ListAnnotations returns annotations newest first, optionally restricted
// to one entity and/or one document
func (r *Repository) ListAnnotations(ctx context.Context, entityID, documentID *int64) ([]*domain.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations`

	var conds []string
	var args []interface{}
	if entityID != nil {
		conds = append(conds, "entity_id = ?")
		args = append(args, *entityID)
	}
	if documentID != nil {
		conds = append(conds, "document_id = ?")
		args = append(args, *documentID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var annotations []*domain.Annotation
	for rows.Next() {
		var row annotationRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating annotations: %w", err)
	}
	return annotations, nil
}

// DeleteAnnotation removes an annotation
func (r *Repository) DeleteAnnotation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("annotation %d not found", id)
	}
	return nil
}

// ============================================================================
// Bulk Operations
// ============================================================================

// ImportFragment applies a fragment inside one transaction and reports
// per-kind created/updated/skipped counts.
//
// The merge strategy reconciles against existing data: entities match on
// (name, category), documents on source URL, relationships on their
// normalized endpoint pair and type. The replace strategy clears the
// archive first.
//
// Relationship endpoints refer to the fragment's own entity IDs; endpoints
// not present in the fragment fall back to existing entity IDs, and
// relationships whose endpoints resolve to nothing are skipped.
func (r *Repository) ImportFragment(ctx context.Context, fragment *domain.Fragment, strategy string) (map[string]int, error) {
	if strategy != "merge" && strategy != "replace" {
		return nil, fmt.Errorf("unknown import strategy %q", strategy)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if strategy == "replace" {
		if err := clearAll(ctx, tx); err != nil {
			return nil, err
		}
	}

	stats := make(map[string]int)

	idMap, err := importEntities(ctx, tx, fragment.Entities, stats)
	if err != nil {
		return nil, err
	}
	if err := importRelationships(ctx, tx, fragment.Relationships, idMap, stats); err != nil {
		return nil, err
	}
	if err := importDocuments(ctx, tx, fragment.Documents, stats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stats, nil
}

// importEntities reconciles fragment entities by (name, category) and
// returns a fragment ID to database ID map for relationship resolution
func importEntities(ctx context.Context, tx *sql.Tx, entities []domain.Entity, stats map[string]int) (map[int64]int64, error) {
	idMap := make(map[int64]int64, len(entities))
	if len(entities) == 0 {
		return idMap, nil
	}

	selStmt, err := tx.PrepareContext(ctx, `SELECT id FROM entities WHERE name = ? AND category = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entity lookup: %w", err)
	}
	defer selStmt.Close()

	insStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (name, category, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entity insert: %w", err)
	}
	defer insStmt.Close()

	// COALESCE keeps an existing description when the incoming one is empty
	updStmt, err := tx.PrepareContext(ctx, `
		UPDATE entities SET description = COALESCE(?, description), updated_at = ? WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entity update: %w", err)
	}
	defer updStmt.Close()

	now := time.Now()
	for _, e := range entities {
		var id int64
		err := selStmt.QueryRowContext(ctx, e.Name, string(e.Category)).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			res, err := insStmt.ExecContext(ctx, e.Name, string(e.Category), stringToNull(e.Description), now, now)
			if err != nil {
				return nil, fmt.Errorf("failed to insert entity %q: %w", e.Name, err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("failed to read entity id: %w", err)
			}
			stats["entities_created"]++
		case err != nil:
			return nil, fmt.Errorf("failed to look up entity %q: %w", e.Name, err)
		default:
			if _, err := updStmt.ExecContext(ctx, stringToNull(e.Description), now, id); err != nil {
				return nil, fmt.Errorf("failed to update entity %q: %w", e.Name, err)
			}
			stats["entities_updated"]++
		}

		if e.ID != 0 {
			idMap[e.ID] = id
		}
	}
	return idMap, nil
}

// importRelationships reconciles fragment relationships by their normalized
// endpoint pair and type, resolving endpoints through idMap first and
// existing entity IDs second
func importRelationships(ctx context.Context, tx *sql.Tx, rels []domain.Relationship, idMap map[int64]int64, stats map[string]int) error {
	if len(rels) == 0 {
		return nil
	}

	existsStmt, err := tx.PrepareContext(ctx, `SELECT id FROM entities WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare entity existence check: %w", err)
	}
	defer existsStmt.Close()

	selStmt, err := tx.PrepareContext(ctx, `SELECT id FROM relationships WHERE from_id = ? AND to_id = ? AND type = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare relationship lookup: %w", err)
	}
	defer selStmt.Close()

	insStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (from_id, to_id, type, weight) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare relationship insert: %w", err)
	}
	defer insStmt.Close()

	updStmt, err := tx.PrepareContext(ctx, `UPDATE relationships SET weight = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare relationship update: %w", err)
	}
	defer updStmt.Close()

	for _, rel := range rels {
		from, ok, err := resolveEndpoint(ctx, existsStmt, idMap, rel.FromID)
		if err != nil {
			return err
		}
		if !ok {
			stats["relationships_skipped"]++
			continue
		}
		to, ok, err := resolveEndpoint(ctx, existsStmt, idMap, rel.ToID)
		if err != nil {
			return err
		}
		if !ok {
			stats["relationships_skipped"]++
			continue
		}

		rel.FromID, rel.ToID = from, to
		rel.Normalize()

		var id int64
		err = selStmt.QueryRowContext(ctx, rel.FromID, rel.ToID, string(rel.Type)).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			if _, err := insStmt.ExecContext(ctx, rel.FromID, rel.ToID, string(rel.Type), rel.Weight); err != nil {
				return fmt.Errorf("failed to insert relationship %s: %w", rel.Key(), err)
			}
			stats["relationships_created"]++
		case err != nil:
			return fmt.Errorf("failed to look up relationship %s: %w", rel.Key(), err)
		default:
			if _, err := updStmt.ExecContext(ctx, rel.Weight, id); err != nil {
				return fmt.Errorf("failed to update relationship %s: %w", rel.Key(), err)
			}
			stats["relationships_updated"]++
		}
	}
	return nil
}

// resolveEndpoint maps a fragment-local entity ID to a database ID
func resolveEndpoint(ctx context.Context, existsStmt *sql.Stmt, idMap map[int64]int64, fragID int64) (int64, bool, error) {
	if id, ok := idMap[fragID]; ok {
		return id, true, nil
	}

	var id int64
	err := existsStmt.QueryRowContext(ctx, fragID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve entity %d: %w", fragID, err)
	}
	return id, true, nil
}

// importDocuments reconciles fragment documents by source URL
func importDocuments(ctx context.Context, tx *sql.Tx, docs []domain.Document, stats map[string]int) error {
	if len(docs) == 0 {
		return nil
	}

	selStmt, err := tx.PrepareContext(ctx, `SELECT id FROM documents WHERE source_url = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare document lookup: %w", err)
	}
	defer selStmt.Close()

	insStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (title, source_url, dataset, media_type, fetched_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer insStmt.Close()

	updStmt, err := tx.PrepareContext(ctx, `
		UPDATE documents SET
			title = COALESCE(?, title),
			dataset = COALESCE(?, dataset),
			media_type = COALESCE(?, media_type),
			fetched_at = COALESCE(?, fetched_at)
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare document update: %w", err)
	}
	defer updStmt.Close()

	now := time.Now()
	for _, d := range docs {
		var id int64
		err := selStmt.QueryRowContext(ctx, d.SourceURL).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			if _, err := insStmt.ExecContext(ctx, stringToNull(d.Title), d.SourceURL, stringToNull(d.Dataset),
				stringToNull(d.MediaType), timePtrToNull(d.FetchedAt), now); err != nil {
				return fmt.Errorf("failed to insert document %q: %w", d.SourceURL, err)
			}
			stats["documents_created"]++
		case err != nil:
			return fmt.Errorf("failed to look up document %q: %w", d.SourceURL, err)
		default:
			if _, err := updStmt.ExecContext(ctx, stringToNull(d.Title), stringToNull(d.Dataset),
				stringToNull(d.MediaType), timePtrToNull(d.FetchedAt), id); err != nil {
				return fmt.Errorf("failed to update document %q: %w", d.SourceURL, err)
			}
			stats["documents_updated"]++
		}
	}
	return nil
}

// ExportFragment snapshots the whole archive as a fragment
func (r *Repository) ExportFragment(ctx context.Context) (*domain.Fragment, error) {
	fragment := domain.NewFragment()

	entities, err := r.ListEntities(ctx, "", "")
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		fragment.AddEntity(*e)
	}

	rels, err := r.ListRelationships(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		fragment.AddRelationship(*rel)
	}

	docs, err := r.ListDocuments(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		fragment.AddDocument(*d)
	}

	return fragment, nil
}

// ClearArchive removes all archive data
func (r *Repository) ClearArchive(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearAll(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// clearAll deletes every table in foreign-key order
func clearAll(ctx context.Context, tx *sql.Tx) error {
	tables := []string{"document_entities", "annotations", "relationships", "documents", "entities"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
