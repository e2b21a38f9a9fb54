// Package handler implements the HTTP layer of the archivum API.
//
// This package provides request handlers for archive operations (entities,
// relationships, documents, annotations, import/export), the WebSocket
// layout sessions behind the relationship-network view, and the middleware
// chain applied around the whole mux.
//
// # Handlers
//
// GraphHandler covers the relationship graph: entity and relationship CRUD,
// the derived graph view, fragment import/export, archive clear, and manual
// ingest sync triggers.
//
// ArchiveHandler covers the document side: document listing and registration,
// mention links, annotations, and manifest import.
//
// LayoutSessions upgrades /ws/layout connections and runs one layout engine
// per connected visualization session.
//
// # API Design
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - PUT for updates
// - DELETE for removal
//
// Errors are returned as JSON with appropriate HTTP status codes.
// Request bodies are validated before processing.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// # Authentication
//
// Destructive routes (archive clear, imports, sync triggers) are wrapped in
// RequireAuth, which compares a bearer token against the configured bcrypt
// hash. With no hash configured the check is disabled.
//
// # Live Updates
//
// The /events endpoint streams change events over SSE for the browse
// screens; /ws/layout carries the bidirectional layout session protocol
// (graph bootstrap and position snapshots out, drag updates in).
package handler
