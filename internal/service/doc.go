// Package service implements business logic for the Archivum application.
//
// This package provides service layers that coordinate between the HTTP
// handlers and the repository layer, implementing business rules, validation,
// and event publishing.
//
// # Services
//
// GraphService manages the entity/relationship graph and handles fragment
// import/export via codec adapters. It also derives the layout graph view
// consumed by WebSocket layout sessions.
//
// ArchiveService manages the document corpus and operator annotations,
// including mention links between documents and entities and bulk document
// registration from release manifests.
//
// # Event System
//
// All services publish events via EventBus. Subscribers include the SSE hub
// (browse screens) and live layout sessions, which restart their simulation
// when the underlying graph changes. Publishing never blocks: slow
// subscribers miss events rather than stalling writers.
//
// # Design Principles
//
// - Services own business logic and validation
// - Repository pattern for data access
// - Event-driven for real-time updates
// - Context-aware for cancellation and timeouts
package service
