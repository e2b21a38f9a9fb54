package sqlite

import (
	"context"
	"database/sql"
	"reflect"
	"testing"
	"time"

	"archivum/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing.
// Foreign keys are enabled through the DSN pragma, so cascade deletes
// behave as in production.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// assertNotNil fails the test if value is nil
func assertNotNil(t *testing.T, value interface{}) {
	t.Helper()
	if value == nil || reflect.ValueOf(value).IsNil() {
		t.Fatalf("expected non-nil value")
	}
}

// assertNil fails the test if value is not nil
func assertNil(t *testing.T, value interface{}) {
	t.Helper()
	if value != nil && !reflect.ValueOf(value).IsNil() {
		t.Fatalf("expected nil value, got %v", value)
	}
}

// seedEntity creates an entity and returns its assigned ID
func seedEntity(t *testing.T, repo *Repository, name string, category domain.EntityCategory) int64 {
	t.Helper()
	entity := domain.NewEntity(name, category)
	if err := repo.CreateEntity(context.Background(), entity); err != nil {
		t.Fatalf("failed to seed entity %q: %v", name, err)
	}
	return entity.ID
}

// seedDocument creates a document and returns its assigned ID
func seedDocument(t *testing.T, repo *Repository, sourceURL, dataset string) int64 {
	t.Helper()
	doc := &domain.Document{SourceURL: sourceURL, Dataset: dataset}
	if err := repo.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("failed to seed document %q: %v", sourceURL, err)
	}
	return doc.ID
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{
			name:     "valid string",
			input:    sql.NullString{String: "test", Valid: true},
			expected: "test",
		},
		{
			name:     "invalid string",
			input:    sql.NullString{String: "test", Valid: false},
			expected: "",
		},
		{
			name:     "empty valid string",
			input:    sql.NullString{String: "", Valid: true},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := nullToString(tt.input)
			assertEqual(t, tt.expected, result)
		})
	}
}

func TestStringToNull(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullString
	}{
		{
			name:     "non-empty string",
			input:    "test",
			expected: sql.NullString{String: "test", Valid: true},
		},
		{
			name:     "empty string",
			input:    "",
			expected: sql.NullString{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stringToNull(tt.input)
			assertEqual(t, tt.expected, result)
		})
	}
}

func TestNullToTimePtr(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		input    sql.NullTime
		expected *time.Time
	}{
		{
			name:     "valid time",
			input:    sql.NullTime{Time: now, Valid: true},
			expected: &now,
		},
		{
			name:     "invalid time",
			input:    sql.NullTime{Time: now, Valid: false},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := nullToTimePtr(tt.input)
			if tt.expected == nil {
				assertNil(t, result)
			} else {
				assertNotNil(t, result)
				if !result.Equal(*tt.expected) {
					t.Fatalf("expected %v, got %v", *tt.expected, *result)
				}
			}
		})
	}
}

func TestTimePtrToNull(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		input    *time.Time
		expected sql.NullTime
	}{
		{
			name:     "non-nil time",
			input:    &now,
			expected: sql.NullTime{Time: now, Valid: true},
		},
		{
			name:     "nil time",
			input:    nil,
			expected: sql.NullTime{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := timePtrToNull(tt.input)
			assertEqual(t, tt.expected.Valid, result.Valid)
			if result.Valid {
				if !result.Time.Equal(tt.expected.Time) {
					t.Fatalf("expected %v, got %v", tt.expected.Time, result.Time)
				}
			}
		})
	}
}

func TestNullToInt64Ptr(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullInt64
		expected *int64
	}{
		{
			name:     "valid value",
			input:    sql.NullInt64{Int64: 42, Valid: true},
			expected: func() *int64 { v := int64(42); return &v }(),
		},
		{
			name:     "invalid value",
			input:    sql.NullInt64{Int64: 42, Valid: false},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := nullToInt64Ptr(tt.input)
			if tt.expected == nil {
				assertNil(t, result)
			} else {
				assertNotNil(t, result)
				assertEqual(t, *tt.expected, *result)
			}
		})
	}
}

func TestInt64PtrToNull(t *testing.T) {
	v := int64(7)

	tests := []struct {
		name     string
		input    *int64
		expected sql.NullInt64
	}{
		{
			name:     "non-nil value",
			input:    &v,
			expected: sql.NullInt64{Int64: 7, Valid: true},
		},
		{
			name:     "nil value",
			input:    nil,
			expected: sql.NullInt64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := int64PtrToNull(tt.input)
			assertEqual(t, tt.expected, result)
		})
	}
}

// ============================================================================
// Row Scanner Tests
// ============================================================================

func TestEntityRowToDomain(t *testing.T) {
	now := time.Now()

	t.Run("full entity with all fields", func(t *testing.T) {
		row := entityRow{
			ID:           1,
			Name:         "Alice Johnson",
			Category:     "person",
			Description:  sql.NullString{String: "Frequent flyer", Valid: true},
			MentionCount: 4,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		entity := row.toDomain()
		assertNotNil(t, entity)

		assertEqual(t, int64(1), entity.ID)
		assertEqual(t, "Alice Johnson", entity.Name)
		assertEqual(t, domain.CategoryPerson, entity.Category)
		assertEqual(t, "Frequent flyer", entity.Description)
		assertEqual(t, 4, entity.MentionCount)
	})

	t.Run("minimal entity with null fields", func(t *testing.T) {
		row := entityRow{
			ID:        2,
			Name:      "Acme Holdings",
			Category:  "organization",
			CreatedAt: now,
			UpdatedAt: now,
		}

		entity := row.toDomain()
		assertNotNil(t, entity)

		assertEqual(t, "", entity.Description)
		assertEqual(t, 0, entity.MentionCount)
	})
}

func TestDocumentRowToDomain(t *testing.T) {
	now := time.Now()

	t.Run("full document", func(t *testing.T) {
		row := documentRow{
			ID:        3,
			Title:     sql.NullString{String: "Flight Log 1997", Valid: true},
			SourceURL: "https://archive.example.gov/set-one/flight-log-1997.pdf",
			Dataset:   sql.NullString{String: "set-one", Valid: true},
			MediaType: sql.NullString{String: "document", Valid: true},
			FetchedAt: sql.NullTime{Time: now, Valid: true},
			CreatedAt: now,
		}

		doc := row.toDomain()
		assertNotNil(t, doc)

		assertEqual(t, int64(3), doc.ID)
		assertEqual(t, "Flight Log 1997", doc.Title)
		assertEqual(t, "set-one", doc.Dataset)
		assertEqual(t, "document", doc.MediaType)
		assertNotNil(t, doc.FetchedAt)
	})

	t.Run("minimal document with null fields", func(t *testing.T) {
		row := documentRow{
			ID:        4,
			SourceURL: "https://archive.example.gov/misc/exhibit.jpg",
			CreatedAt: now,
		}

		doc := row.toDomain()
		assertNotNil(t, doc)

		assertEqual(t, "", doc.Title)
		assertEqual(t, "", doc.Dataset)
		assertNil(t, doc.FetchedAt)
	})
}

func TestAnnotationRowToDomain(t *testing.T) {
	now := time.Now()

	t.Run("annotation on an entity", func(t *testing.T) {
		row := annotationRow{
			ID:        1,
			EntityID:  sql.NullInt64{Int64: 5, Valid: true},
			Author:    sql.NullString{String: "reviewer", Valid: true},
			Body:      "Cross-reference with set-two",
			CreatedAt: now,
		}

		a := row.toDomain()
		assertNotNil(t, a)
		assertNotNil(t, a.EntityID)
		assertEqual(t, int64(5), *a.EntityID)
		assertNil(t, a.DocumentID)
		assertEqual(t, "reviewer", a.Author)
	})

	t.Run("annotation on a document", func(t *testing.T) {
		row := annotationRow{
			ID:         2,
			DocumentID: sql.NullInt64{Int64: 9, Valid: true},
			Body:       "Pages 3-7 are redacted",
			CreatedAt:  now,
		}

		a := row.toDomain()
		assertNotNil(t, a)
		assertNil(t, a.EntityID)
		assertNotNil(t, a.DocumentID)
		assertEqual(t, int64(9), *a.DocumentID)
		assertEqual(t, "", a.Author)
	})
}

// ============================================================================
// Entity CRUD Tests
// ============================================================================

func TestCreateEntity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("create assigns an id", func(t *testing.T) {
		entity := domain.NewEntity("Alice Johnson", domain.CategoryPerson)
		entity.Description = "Frequent flyer"

		err := repo.CreateEntity(ctx, entity)
		assertNoError(t, err)
		if entity.ID == 0 {
			t.Fatal("expected entity ID to be assigned")
		}

		retrieved, err := repo.GetEntity(ctx, entity.ID)
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, "Alice Johnson", retrieved.Name)
		assertEqual(t, "Frequent flyer", retrieved.Description)
	})

	t.Run("duplicate name and category fails", func(t *testing.T) {
		entity := domain.NewEntity("Acme Holdings", domain.CategoryOrganization)
		assertNoError(t, repo.CreateEntity(ctx, entity))

		dup := domain.NewEntity("Acme Holdings", domain.CategoryOrganization)
		err := repo.CreateEntity(ctx, dup)
		if err == nil {
			t.Fatal("expected error creating duplicate entity")
		}
	})

	t.Run("same name different category is allowed", func(t *testing.T) {
		a := domain.NewEntity("Paris", domain.CategoryLocation)
		assertNoError(t, repo.CreateEntity(ctx, a))

		b := domain.NewEntity("Paris", domain.CategoryPerson)
		assertNoError(t, repo.CreateEntity(ctx, b))
	})

	t.Run("zero timestamps are filled in", func(t *testing.T) {
		entity := &domain.Entity{Name: "Harbor Club", Category: domain.CategoryLocation}
		assertNoError(t, repo.CreateEntity(ctx, entity))

		retrieved, err := repo.GetEntity(ctx, entity.ID)
		assertNoError(t, err)
		if retrieved.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be set")
		}
		if retrieved.UpdatedAt.IsZero() {
			t.Fatal("expected UpdatedAt to be set")
		}
	})
}

func TestGetEntity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("get existing entity", func(t *testing.T) {
		id := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)

		retrieved, err := repo.GetEntity(ctx, id)
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, id, retrieved.ID)
	})

	t.Run("get non-existent entity returns nil", func(t *testing.T) {
		retrieved, err := repo.GetEntity(ctx, 9999)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})
}

func TestGetEntityByName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := seedEntity(t, repo, "Acme Holdings", domain.CategoryOrganization)

	t.Run("existing pair", func(t *testing.T) {
		retrieved, err := repo.GetEntityByName(ctx, "Acme Holdings", domain.CategoryOrganization)
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, id, retrieved.ID)
	})

	t.Run("same name wrong category returns nil", func(t *testing.T) {
		retrieved, err := repo.GetEntityByName(ctx, "Acme Holdings", domain.CategoryPerson)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})
}

func TestListEntities(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	entities := []struct {
		name        string
		category    domain.EntityCategory
		description string
	}{
		{"Alice Johnson", domain.CategoryPerson, "Frequent flyer"},
		{"Bob Greene", domain.CategoryPerson, "Pilot"},
		{"Acme Holdings", domain.CategoryOrganization, "Shell company"},
		{"Harbor Club", domain.CategoryLocation, ""},
	}
	for _, e := range entities {
		entity := domain.NewEntity(e.name, e.category)
		entity.Description = e.description
		assertNoError(t, repo.CreateEntity(ctx, entity))
	}

	t.Run("list all entities", func(t *testing.T) {
		result, err := repo.ListEntities(ctx, "", "")
		assertNoError(t, err)
		assertEqual(t, 4, len(result))
	})

	t.Run("filter by category", func(t *testing.T) {
		result, err := repo.ListEntities(ctx, "person", "")
		assertNoError(t, err)
		assertEqual(t, 2, len(result))
	})

	t.Run("search matches name", func(t *testing.T) {
		result, err := repo.ListEntities(ctx, "", "johnson")
		assertNoError(t, err)
		assertEqual(t, 1, len(result))
		assertEqual(t, "Alice Johnson", result[0].Name)
	})

	t.Run("search matches description", func(t *testing.T) {
		result, err := repo.ListEntities(ctx, "", "pilot")
		assertNoError(t, err)
		assertEqual(t, 1, len(result))
		assertEqual(t, "Bob Greene", result[0].Name)
	})

	t.Run("filter by category and search", func(t *testing.T) {
		result, err := repo.ListEntities(ctx, "person", "flyer")
		assertNoError(t, err)
		assertEqual(t, 1, len(result))
		assertEqual(t, "Alice Johnson", result[0].Name)
	})

	t.Run("ordered by name", func(t *testing.T) {
		result, err := repo.ListEntities(ctx, "", "")
		assertNoError(t, err)
		assertEqual(t, "Acme Holdings", result[0].Name)
		assertEqual(t, "Alice Johnson", result[1].Name)
	})
}

func TestUpdateEntity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("update fields", func(t *testing.T) {
		entity := domain.NewEntity("Alice Johnson", domain.CategoryPerson)
		assertNoError(t, repo.CreateEntity(ctx, entity))

		entity.Description = "Updated description"
		assertNoError(t, repo.UpdateEntity(ctx, entity))

		retrieved, err := repo.GetEntity(ctx, entity.ID)
		assertNoError(t, err)
		assertEqual(t, "Updated description", retrieved.Description)
	})

	t.Run("update non-existent entity fails", func(t *testing.T) {
		entity := &domain.Entity{ID: 9999, Name: "Ghost", Category: domain.CategoryPerson}
		err := repo.UpdateEntity(ctx, entity)
		if err == nil {
			t.Fatal("expected error updating non-existent entity")
		}
	})
}

func TestDeleteEntity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("delete existing entity", func(t *testing.T) {
		id := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)

		assertNoError(t, repo.DeleteEntity(ctx, id))

		retrieved, err := repo.GetEntity(ctx, id)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})

	t.Run("delete non-existent entity fails", func(t *testing.T) {
		err := repo.DeleteEntity(ctx, 9999)
		if err == nil {
			t.Fatal("expected error deleting non-existent entity")
		}
	})
}

// ============================================================================
// Relationship CRUD Tests
// ============================================================================

func TestCreateRelationship(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	t.Run("create between existing entities", func(t *testing.T) {
		rel := domain.NewRelationship(alice, bob, domain.RelationAssociate)
		assertNoError(t, repo.CreateRelationship(ctx, rel))
		if rel.ID == 0 {
			t.Fatal("expected relationship ID to be assigned")
		}

		retrieved, err := repo.GetRelationship(ctx, rel.ID)
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, 1.0, retrieved.Weight)
	})

	t.Run("endpoints are normalized", func(t *testing.T) {
		rel := domain.NewRelationship(bob, alice, domain.RelationTravel)
		assertNoError(t, repo.CreateRelationship(ctx, rel))

		retrieved, err := repo.GetRelationship(ctx, rel.ID)
		assertNoError(t, err)
		assertEqual(t, alice, retrieved.FromID)
		assertEqual(t, bob, retrieved.ToID)
	})

	t.Run("reverse of existing pair fails", func(t *testing.T) {
		rel := domain.NewRelationship(bob, alice, domain.RelationAssociate)
		err := repo.CreateRelationship(ctx, rel)
		if err == nil {
			t.Fatal("expected error creating reversed duplicate relationship")
		}
	})

	t.Run("create with non-existent endpoint fails", func(t *testing.T) {
		rel := domain.NewRelationship(alice, 9999, domain.RelationFinancial)
		err := repo.CreateRelationship(ctx, rel)
		if err == nil {
			t.Fatal("expected error creating relationship with non-existent endpoint")
		}
	})
}

func TestGetRelationship(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("get non-existent relationship returns nil", func(t *testing.T) {
		retrieved, err := repo.GetRelationship(ctx, 9999)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})
}

func TestListRelationships(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)
	acme := seedEntity(t, repo, "Acme Holdings", domain.CategoryOrganization)

	rels := []struct {
		from, to int64
		typ      domain.RelationshipType
	}{
		{alice, bob, domain.RelationAssociate},
		{alice, acme, domain.RelationFinancial},
		{bob, acme, domain.RelationFinancial},
	}
	for _, r := range rels {
		rel := domain.NewRelationship(r.from, r.to, r.typ)
		assertNoError(t, repo.CreateRelationship(ctx, rel))
	}

	t.Run("list all relationships", func(t *testing.T) {
		result, err := repo.ListRelationships(ctx, "")
		assertNoError(t, err)
		assertEqual(t, 3, len(result))
	})

	t.Run("filter by type", func(t *testing.T) {
		result, err := repo.ListRelationships(ctx, "financial")
		assertNoError(t, err)
		assertEqual(t, 2, len(result))
	})
}

func TestUpdateRelationship(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	rel := domain.NewRelationship(alice, bob, domain.RelationAssociate)
	assertNoError(t, repo.CreateRelationship(ctx, rel))

	t.Run("update weight", func(t *testing.T) {
		rel.Weight = 3.5
		assertNoError(t, repo.UpdateRelationship(ctx, rel))

		retrieved, err := repo.GetRelationship(ctx, rel.ID)
		assertNoError(t, err)
		assertEqual(t, 3.5, retrieved.Weight)
	})

	t.Run("update non-existent relationship fails", func(t *testing.T) {
		ghost := &domain.Relationship{ID: 9999, Type: domain.RelationTravel, Weight: 1}
		err := repo.UpdateRelationship(ctx, ghost)
		if err == nil {
			t.Fatal("expected error updating non-existent relationship")
		}
	})
}

func TestDeleteRelationship(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	t.Run("delete existing relationship", func(t *testing.T) {
		rel := domain.NewRelationship(alice, bob, domain.RelationAssociate)
		assertNoError(t, repo.CreateRelationship(ctx, rel))

		assertNoError(t, repo.DeleteRelationship(ctx, rel.ID))

		retrieved, err := repo.GetRelationship(ctx, rel.ID)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})

	t.Run("delete non-existent relationship fails", func(t *testing.T) {
		err := repo.DeleteRelationship(ctx, 9999)
		if err == nil {
			t.Fatal("expected error deleting non-existent relationship")
		}
	})
}

func TestRelationshipCascadeDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	rel := domain.NewRelationship(alice, bob, domain.RelationAssociate)
	assertNoError(t, repo.CreateRelationship(ctx, rel))

	assertNoError(t, repo.DeleteEntity(ctx, alice))

	retrieved, err := repo.GetRelationship(ctx, rel.ID)
	assertNoError(t, err)
	assertNil(t, retrieved)
}

// ============================================================================
// Document Tests
// ============================================================================

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("create assigns an id", func(t *testing.T) {
		fetched := time.Now()
		doc := &domain.Document{
			Title:     "Flight Log 1997",
			SourceURL: "https://archive.example.gov/set-one/flight-log-1997.pdf",
			Dataset:   "set-one",
			MediaType: "document",
			FetchedAt: &fetched,
		}
		assertNoError(t, repo.CreateDocument(ctx, doc))
		if doc.ID == 0 {
			t.Fatal("expected document ID to be assigned")
		}

		retrieved, err := repo.GetDocument(ctx, doc.ID)
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, "Flight Log 1997", retrieved.Title)
		assertEqual(t, "set-one", retrieved.Dataset)
		assertNotNil(t, retrieved.FetchedAt)
	})

	t.Run("duplicate source url fails", func(t *testing.T) {
		doc := &domain.Document{SourceURL: "https://archive.example.gov/set-one/exhibit-a.jpg"}
		assertNoError(t, repo.CreateDocument(ctx, doc))

		dup := &domain.Document{SourceURL: "https://archive.example.gov/set-one/exhibit-a.jpg"}
		err := repo.CreateDocument(ctx, dup)
		if err == nil {
			t.Fatal("expected error creating duplicate document")
		}
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("get non-existent document returns nil", func(t *testing.T) {
		retrieved, err := repo.GetDocument(ctx, 9999)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})
}

func TestGetDocumentByURL(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := seedDocument(t, repo, "https://archive.example.gov/set-two/deposition.pdf", "set-two")

	t.Run("existing url", func(t *testing.T) {
		retrieved, err := repo.GetDocumentByURL(ctx, "https://archive.example.gov/set-two/deposition.pdf")
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, id, retrieved.ID)
	})

	t.Run("unknown url returns nil", func(t *testing.T) {
		retrieved, err := repo.GetDocumentByURL(ctx, "https://archive.example.gov/nope.pdf")
		assertNoError(t, err)
		assertNil(t, retrieved)
	})
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d1 := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")
	d2 := seedDocument(t, repo, "https://archive.example.gov/set-one/b.pdf", "set-one")
	seedDocument(t, repo, "https://archive.example.gov/set-two/c.pdf", "set-two")

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	assertNoError(t, repo.LinkMention(ctx, d1, alice))
	assertNoError(t, repo.LinkMention(ctx, d2, alice))

	t.Run("list all documents", func(t *testing.T) {
		result, err := repo.ListDocuments(ctx, "", 0)
		assertNoError(t, err)
		assertEqual(t, 3, len(result))
	})

	t.Run("filter by dataset", func(t *testing.T) {
		result, err := repo.ListDocuments(ctx, "set-one", 0)
		assertNoError(t, err)
		assertEqual(t, 2, len(result))
	})

	t.Run("filter by mentioned entity", func(t *testing.T) {
		result, err := repo.ListDocuments(ctx, "", alice)
		assertNoError(t, err)
		assertEqual(t, 2, len(result))
	})

	t.Run("filter by dataset and entity", func(t *testing.T) {
		result, err := repo.ListDocuments(ctx, "set-two", alice)
		assertNoError(t, err)
		assertEqual(t, 0, len(result))
	})
}

func TestLinkMention(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	doc := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")
	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)

	t.Run("link and relink is idempotent", func(t *testing.T) {
		assertNoError(t, repo.LinkMention(ctx, doc, alice))
		assertNoError(t, repo.LinkMention(ctx, doc, alice))

		entity, err := repo.GetEntity(ctx, alice)
		assertNoError(t, err)
		assertEqual(t, 1, entity.MentionCount)
	})

	t.Run("link to non-existent entity fails", func(t *testing.T) {
		err := repo.LinkMention(ctx, doc, 9999)
		if err == nil {
			t.Fatal("expected error linking mention to non-existent entity")
		}
	})

	t.Run("link from non-existent document fails", func(t *testing.T) {
		err := repo.LinkMention(ctx, 9999, alice)
		if err == nil {
			t.Fatal("expected error linking mention from non-existent document")
		}
	})
}

func TestMentionCount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	d1 := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")
	d2 := seedDocument(t, repo, "https://archive.example.gov/set-one/b.pdf", "set-one")

	assertNoError(t, repo.LinkMention(ctx, d1, alice))
	assertNoError(t, repo.LinkMention(ctx, d2, alice))
	assertNoError(t, repo.LinkMention(ctx, d1, bob))

	entity, err := repo.GetEntity(ctx, alice)
	assertNoError(t, err)
	assertEqual(t, 2, entity.MentionCount)

	// ListEntities carries the same derived count
	list, err := repo.ListEntities(ctx, "person", "")
	assertNoError(t, err)
	counts := map[string]int{}
	for _, e := range list {
		counts[e.Name] = e.MentionCount
	}
	assertEqual(t, 2, counts["Alice Johnson"])
	assertEqual(t, 1, counts["Bob Greene"])
}

// ============================================================================
// Annotation Tests
// ============================================================================

func TestCreateAnnotation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	doc := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")

	t.Run("annotate an entity", func(t *testing.T) {
		a := &domain.Annotation{EntityID: &alice, Author: "reviewer", Body: "Verify spelling"}
		assertNoError(t, repo.CreateAnnotation(ctx, a))
		if a.ID == 0 {
			t.Fatal("expected annotation ID to be assigned")
		}
	})

	t.Run("annotate a document", func(t *testing.T) {
		a := &domain.Annotation{DocumentID: &doc, Body: "Pages 3-7 are redacted"}
		assertNoError(t, repo.CreateAnnotation(ctx, a))
	})

	t.Run("annotate non-existent entity fails", func(t *testing.T) {
		ghost := int64(9999)
		a := &domain.Annotation{EntityID: &ghost, Body: "Dangling"}
		err := repo.CreateAnnotation(ctx, a)
		if err == nil {
			t.Fatal("expected error annotating non-existent entity")
		}
	})
}

func TestListAnnotations(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)
	doc := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")

	annotations := []*domain.Annotation{
		{EntityID: &alice, Body: "First note"},
		{EntityID: &alice, DocumentID: &doc, Body: "Entity mentioned on page 4"},
		{EntityID: &bob, Body: "Second note"},
		{DocumentID: &doc, Body: "Document-only note"},
	}
	for _, a := range annotations {
		assertNoError(t, repo.CreateAnnotation(ctx, a))
	}

	t.Run("list all annotations", func(t *testing.T) {
		result, err := repo.ListAnnotations(ctx, nil, nil)
		assertNoError(t, err)
		assertEqual(t, 4, len(result))
	})

	t.Run("filter by entity", func(t *testing.T) {
		result, err := repo.ListAnnotations(ctx, &alice, nil)
		assertNoError(t, err)
		assertEqual(t, 2, len(result))
	})

	t.Run("filter by document", func(t *testing.T) {
		result, err := repo.ListAnnotations(ctx, nil, &doc)
		assertNoError(t, err)
		assertEqual(t, 2, len(result))
	})

	t.Run("filter by entity and document", func(t *testing.T) {
		result, err := repo.ListAnnotations(ctx, &alice, &doc)
		assertNoError(t, err)
		assertEqual(t, 1, len(result))
		assertEqual(t, "Entity mentioned on page 4", result[0].Body)
	})
}

func TestDeleteAnnotation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)

	t.Run("delete existing annotation", func(t *testing.T) {
		a := &domain.Annotation{EntityID: &alice, Body: "Temp note"}
		assertNoError(t, repo.CreateAnnotation(ctx, a))

		assertNoError(t, repo.DeleteAnnotation(ctx, a.ID))

		result, err := repo.ListAnnotations(ctx, &alice, nil)
		assertNoError(t, err)
		assertEqual(t, 0, len(result))
	})

	t.Run("delete non-existent annotation fails", func(t *testing.T) {
		err := repo.DeleteAnnotation(ctx, 9999)
		if err == nil {
			t.Fatal("expected error deleting non-existent annotation")
		}
	})
}

func TestAnnotationCascadeDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	doc := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")

	entityNote := &domain.Annotation{EntityID: &alice, Body: "Entity note"}
	docNote := &domain.Annotation{DocumentID: &doc, Body: "Document note"}
	assertNoError(t, repo.CreateAnnotation(ctx, entityNote))
	assertNoError(t, repo.CreateAnnotation(ctx, docNote))

	assertNoError(t, repo.DeleteEntity(ctx, alice))

	// The entity's annotation dies with it; the document note survives.
	result, err := repo.ListAnnotations(ctx, nil, nil)
	assertNoError(t, err)
	assertEqual(t, 1, len(result))
	assertEqual(t, "Document note", result[0].Body)
}

// ============================================================================
// Import/Export Tests
// ============================================================================

func TestImportFragment(t *testing.T) {
	ctx := context.Background()

	t.Run("merge strategy reconciles by name", func(t *testing.T) {
		repo := newTestRepo(t)

		existing := domain.NewEntity("Alice Johnson", domain.CategoryPerson)
		assertNoError(t, repo.CreateEntity(ctx, existing))

		fragment := domain.NewFragment()
		fragment.Entities = []domain.Entity{
			{ID: 1, Name: "Alice Johnson", Category: domain.CategoryPerson, Description: "Frequent flyer"},
			{ID: 2, Name: "Bob Greene", Category: domain.CategoryPerson},
		}
		fragment.Relationships = []domain.Relationship{
			{FromID: 1, ToID: 2, Type: domain.RelationAssociate, Weight: 2},
		}

		result, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)
		assertEqual(t, 1, result["entities_updated"])
		assertEqual(t, 1, result["entities_created"])
		assertEqual(t, 1, result["relationships_created"])

		// Merged description landed on the pre-existing row
		entity, err := repo.GetEntity(ctx, existing.ID)
		assertNoError(t, err)
		assertEqual(t, "Frequent flyer", entity.Description)

		// Relationship endpoints resolved through the fragment id map
		rels, err := repo.ListRelationships(ctx, "")
		assertNoError(t, err)
		assertEqual(t, 1, len(rels))
		assertEqual(t, existing.ID, rels[0].FromID)
	})

	t.Run("merge preserves description when incoming is empty", func(t *testing.T) {
		repo := newTestRepo(t)

		existing := domain.NewEntity("Alice Johnson", domain.CategoryPerson)
		existing.Description = "Original"
		assertNoError(t, repo.CreateEntity(ctx, existing))

		fragment := domain.NewFragment()
		fragment.Entities = []domain.Entity{
			{ID: 1, Name: "Alice Johnson", Category: domain.CategoryPerson},
		}

		_, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)

		entity, err := repo.GetEntity(ctx, existing.ID)
		assertNoError(t, err)
		assertEqual(t, "Original", entity.Description)
	})

	t.Run("merge updates relationship weight", func(t *testing.T) {
		repo := newTestRepo(t)

		fragment := domain.NewFragment()
		fragment.Entities = []domain.Entity{
			{ID: 1, Name: "Alice Johnson", Category: domain.CategoryPerson},
			{ID: 2, Name: "Bob Greene", Category: domain.CategoryPerson},
		}
		fragment.Relationships = []domain.Relationship{
			{FromID: 1, ToID: 2, Type: domain.RelationAssociate, Weight: 1},
		}

		_, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)

		// Same pair reversed, heavier weight
		fragment.Relationships = []domain.Relationship{
			{FromID: 2, ToID: 1, Type: domain.RelationAssociate, Weight: 5},
		}
		result, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)
		assertEqual(t, 1, result["relationships_updated"])

		rels, err := repo.ListRelationships(ctx, "")
		assertNoError(t, err)
		assertEqual(t, 1, len(rels))
		assertEqual(t, 5.0, rels[0].Weight)
	})

	t.Run("replace strategy clears first", func(t *testing.T) {
		repo := newTestRepo(t)

		old := domain.NewEntity("Old Entity", domain.CategoryOther)
		assertNoError(t, repo.CreateEntity(ctx, old))

		fragment := domain.NewFragment()
		fragment.Entities = []domain.Entity{
			{ID: 1, Name: "Alice Johnson", Category: domain.CategoryPerson},
		}

		result, err := repo.ImportFragment(ctx, fragment, "replace")
		assertNoError(t, err)
		assertEqual(t, 1, result["entities_created"])

		gone, err := repo.GetEntity(ctx, old.ID)
		assertNoError(t, err)
		assertNil(t, gone)

		all, err := repo.ListEntities(ctx, "", "")
		assertNoError(t, err)
		assertEqual(t, 1, len(all))
	})

	t.Run("unresolved relationship endpoints are skipped", func(t *testing.T) {
		repo := newTestRepo(t)

		fragment := domain.NewFragment()
		fragment.Entities = []domain.Entity{
			{ID: 1, Name: "Alice Johnson", Category: domain.CategoryPerson},
		}
		fragment.Relationships = []domain.Relationship{
			{FromID: 1, ToID: 42, Type: domain.RelationAssociate, Weight: 1},
		}

		result, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)
		assertEqual(t, 1, result["relationships_skipped"])

		rels, err := repo.ListRelationships(ctx, "")
		assertNoError(t, err)
		assertEqual(t, 0, len(rels))
	})

	t.Run("endpoints fall back to existing entity ids", func(t *testing.T) {
		repo := newTestRepo(t)

		alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
		bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

		// Entity-free fragment: endpoints name database rows directly
		fragment := domain.NewFragment()
		fragment.Relationships = []domain.Relationship{
			{FromID: alice, ToID: bob, Type: domain.RelationLegal, Weight: 1},
		}

		result, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)
		assertEqual(t, 1, result["relationships_created"])
	})

	t.Run("documents merge by source url", func(t *testing.T) {
		repo := newTestRepo(t)

		seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")

		fragment := domain.NewFragment()
		fragment.Documents = []domain.Document{
			{SourceURL: "https://archive.example.gov/set-one/a.pdf", Title: "Exhibit A"},
			{SourceURL: "https://archive.example.gov/set-one/b.pdf", Dataset: "set-one"},
		}

		result, err := repo.ImportFragment(ctx, fragment, "merge")
		assertNoError(t, err)
		assertEqual(t, 1, result["documents_updated"])
		assertEqual(t, 1, result["documents_created"])

		doc, err := repo.GetDocumentByURL(ctx, "https://archive.example.gov/set-one/a.pdf")
		assertNoError(t, err)
		assertEqual(t, "Exhibit A", doc.Title)
		// Dataset from the original row survives the merge
		assertEqual(t, "set-one", doc.Dataset)
	})

	t.Run("unknown strategy fails", func(t *testing.T) {
		repo := newTestRepo(t)

		_, err := repo.ImportFragment(ctx, domain.NewFragment(), "upsert")
		if err == nil {
			t.Fatal("expected error for unknown import strategy")
		}
	})
}

func TestExportFragment(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	rel := domain.NewRelationship(alice, bob, domain.RelationAssociate)
	assertNoError(t, repo.CreateRelationship(ctx, rel))

	seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")

	fragment, err := repo.ExportFragment(ctx)
	assertNoError(t, err)
	assertNotNil(t, fragment)
	assertEqual(t, 2, len(fragment.Entities))
	assertEqual(t, 1, len(fragment.Relationships))
	assertEqual(t, 1, len(fragment.Documents))
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	fragment := domain.NewFragment()
	fragment.Entities = []domain.Entity{
		{ID: 1, Name: "Alice Johnson", Category: domain.CategoryPerson, Description: "Frequent flyer"},
		{ID: 2, Name: "Acme Holdings", Category: domain.CategoryOrganization},
	}
	fragment.Relationships = []domain.Relationship{
		{FromID: 1, ToID: 2, Type: domain.RelationFinancial, Weight: 2.5},
	}
	fragment.Documents = []domain.Document{
		{SourceURL: "https://archive.example.gov/set-one/a.pdf", Dataset: "set-one", MediaType: "document"},
	}

	_, err := repo.ImportFragment(ctx, fragment, "merge")
	assertNoError(t, err)

	exported, err := repo.ExportFragment(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(exported.Entities))
	assertEqual(t, 1, len(exported.Relationships))
	assertEqual(t, 1, len(exported.Documents))
	assertEqual(t, 2.5, exported.Relationships[0].Weight)
	assertEqual(t, "document", exported.Documents[0].MediaType)
}

// ============================================================================
// Clear Archive Tests
// ============================================================================

func TestClearArchive(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alice := seedEntity(t, repo, "Alice Johnson", domain.CategoryPerson)
	bob := seedEntity(t, repo, "Bob Greene", domain.CategoryPerson)

	rel := domain.NewRelationship(alice, bob, domain.RelationAssociate)
	assertNoError(t, repo.CreateRelationship(ctx, rel))

	doc := seedDocument(t, repo, "https://archive.example.gov/set-one/a.pdf", "set-one")
	assertNoError(t, repo.LinkMention(ctx, doc, alice))

	note := &domain.Annotation{EntityID: &alice, Body: "Note"}
	assertNoError(t, repo.CreateAnnotation(ctx, note))

	assertNoError(t, repo.ClearArchive(ctx))

	entities, err := repo.ListEntities(ctx, "", "")
	assertNoError(t, err)
	assertEqual(t, 0, len(entities))

	rels, err := repo.ListRelationships(ctx, "")
	assertNoError(t, err)
	assertEqual(t, 0, len(rels))

	docs, err := repo.ListDocuments(ctx, "", 0)
	assertNoError(t, err)
	assertEqual(t, 0, len(docs))

	annotations, err := repo.ListAnnotations(ctx, nil, nil)
	assertNoError(t, err)
	assertEqual(t, 0, len(annotations))
}

// ============================================================================
// Persistence Round-trip Tests
// ============================================================================

func TestReopenPersistsData(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/archive.db"

	repo, err := New(path)
	assertNoError(t, err)

	alice := domain.NewEntity("Alice Johnson", domain.CategoryPerson)
	assertNoError(t, repo.CreateEntity(ctx, alice))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	retrieved, err := reopened.GetEntity(ctx, alice.ID)
	assertNoError(t, err)
	assertNotNil(t, retrieved)
	assertEqual(t, "Alice Johnson", retrieved.Name)
}
