// Package repository defines the data access interfaces for Archivum.
//
// This package provides the repository abstraction layer for persisting
// and retrieving domain entities. The actual implementation is in the
// sqlite subpackage.
//
// # Repository Interface
//
// The Repository interface defines all data access methods for entities,
// relationships, documents, document mentions, and annotations.
//
// # SQLite Implementation
//
// The sqlite implementation provides a complete repository using SQLite
// with WAL mode for concurrency. It handles:
//
// - CRUD operations for all archive record types
// - Foreign key constraints and cascade deletes
// - Direction-normalized relationship deduplication
// - Mention counting through the document_entities join table
// - Transactional imports for bulk operations
//
// Layout positions are deliberately not persisted: the graph layout is
// recomputed per session by the layout engine.
//
// # Schema Migration
//
// The sqlite repository migrates the schema on startup. Migration is
// idempotent, so reopening an existing database is safe.
//
// # Testing
//
// The sqlite repository is extensively tested with in-memory databases
// to ensure data integrity and proper handling of edge cases.
package repository
