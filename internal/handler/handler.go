package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"archivum/internal/domain"
	"archivum/internal/service"
)

// SyncTrigger allows triggering ingest syncs from the handler.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, name string) error
	TriggerSyncAll(ctx context.Context) error
}

// GraphHandler handles graph API requests.
type GraphHandler struct {
	svc  *service.GraphService
	sync SyncTrigger
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(svc *service.GraphService) *GraphHandler {
	return &GraphHandler{svc: svc}
}

// SetSyncTrigger sets the ingest registry used by the sync endpoint.
func (h *GraphHandler) SetSyncTrigger(t SyncTrigger) {
	h.sync = t
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetGraph returns the relationship-network view.
// GET /api/graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.svc.LayoutGraph(r.Context())
	if err != nil {
		log.Printf("Failed to build graph view: %v", err)
		writeError(w, "Failed to build graph view", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, graph, http.StatusOK)
}

// ClearArchive removes all entities, relationships, documents, and
// annotations.
// DELETE /api/graph
func (h *GraphHandler) ClearArchive(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearArchive(r.Context()); err != nil {
		log.Printf("Failed to clear archive: %v", err)
		writeError(w, "Failed to clear archive", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "cleared"}, http.StatusOK)
}

// ListEntities returns entities, optionally filtered.
// GET /api/entities?category=person&q=harbor
func (h *GraphHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("q")

	entities, err := h.svc.ListEntities(r.Context(), category, search)
	if err != nil {
		log.Printf("Failed to list entities: %v", err)
		writeError(w, "Failed to list entities", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, entities, http.StatusOK)
}

// GetEntity returns a single entity.
// GET /api/entities/{id}
func (h *GraphHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entity, err := h.svc.GetEntity(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to get entity: %v", err)
		writeError(w, "Failed to get entity", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, entity, http.StatusOK)
}

// CreateEntity creates a new entity.
// POST /api/entities
func (h *GraphHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var entity domain.Entity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.CreateEntity(r.Context(), &entity); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			writeError(w, "Conflict", err.Error(), http.StatusConflict)
			return
		}
		log.Printf("Failed to create entity: %v", err)
		writeError(w, "Failed to create entity", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, entity, http.StatusCreated)
}

// UpdateEntity updates an existing entity.
// PUT /api/entities/{id}
func (h *GraphHandler) UpdateEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var entity domain.Entity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	entity.ID = id // Ensure ID matches path

	if err := h.svc.UpdateEntity(r.Context(), &entity); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to update entity: %v", err)
		writeError(w, "Failed to update entity", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, entity, http.StatusOK)
}

// DeleteEntity deletes an entity along with its relationships and mentions.
// DELETE /api/entities/{id}
func (h *GraphHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteEntity(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete entity: %v", err)
		writeError(w, "Failed to delete entity", err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRelationships returns relationships, optionally filtered by type.
// GET /api/relationships?type=financial
func (h *GraphHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	relType := r.URL.Query().Get("type")

	rels, err := h.svc.ListRelationships(r.Context(), relType)
	if err != nil {
		log.Printf("Failed to list relationships: %v", err)
		writeError(w, "Failed to list relationships", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, rels, http.StatusOK)
}

// GetRelationship returns a single relationship.
// GET /api/relationships/{id}
func (h *GraphHandler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rel, err := h.svc.GetRelationship(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to get relationship: %v", err)
		writeError(w, "Failed to get relationship", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, rel, http.StatusOK)
}

// CreateRelationship creates a new relationship between two entities.
// POST /api/relationships
func (h *GraphHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var rel domain.Relationship
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.CreateRelationship(r.Context(), &rel); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Unknown endpoint", err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to create relationship: %v", err)
		writeError(w, "Failed to create relationship", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, rel, http.StatusCreated)
}

// UpdateRelationship updates an existing relationship.
// PUT /api/relationships/{id}
func (h *GraphHandler) UpdateRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var rel domain.Relationship
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	rel.ID = id // Ensure ID matches path

	if err := h.svc.UpdateRelationship(r.Context(), &rel); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to update relationship: %v", err)
		writeError(w, "Failed to update relationship", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, rel, http.StatusOK)
}

// DeleteRelationship deletes a relationship.
// DELETE /api/relationships/{id}
func (h *GraphHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteRelationship(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete relationship: %v", err)
		writeError(w, "Failed to delete relationship", err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportJSON imports an archive fragment from JSON.
// POST /api/import/json?strategy=merge
func (h *GraphHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	strategy := r.URL.Query().Get("strategy")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.ImportJSON(r.Context(), data, strategy)
	if err != nil {
		log.Printf("Failed to import JSON: %v", err)
		writeError(w, "Failed to import JSON", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// ImportYAML imports an archive fragment from YAML.
// POST /api/import/yaml?strategy=merge
func (h *GraphHandler) ImportYAML(w http.ResponseWriter, r *http.Request) {
	strategy := r.URL.Query().Get("strategy")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.ImportYAML(r.Context(), data, strategy)
	if err != nil {
		log.Printf("Failed to import YAML: %v", err)
		writeError(w, "Failed to import YAML", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// ExportJSON exports the archive as JSON.
// GET /api/export/json
func (h *GraphHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportJSON(r.Context())
	if err != nil {
		log.Printf("Failed to export JSON: %v", err)
		writeError(w, "Failed to export JSON", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=archive.json")
	w.Write(data)
}

// ExportYAML exports the archive as YAML.
// GET /api/export/yaml
func (h *GraphHandler) ExportYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", "attachment; filename=archive.yml")

	if err := h.svc.ExportYAML(r.Context(), w); err != nil {
		log.Printf("Failed to export YAML: %v", err)
		// Can't write error response as we already set headers
		return
	}
}

// TriggerSync triggers ingest syncs, either for one named source or all of
// them. The sync runs in the background; the response only acknowledges.
// POST /api/sync?source=dataset-file
func (h *GraphHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeError(w, "Sync not configured", "No ingest sources are registered", http.StatusServiceUnavailable)
		return
	}

	source := r.URL.Query().Get("source")

	go func() {
		var err error
		if source != "" {
			err = h.sync.TriggerSync(context.Background(), source)
		} else {
			err = h.sync.TriggerSyncAll(context.Background())
		}
		if err != nil {
			log.Printf("Ingest sync failed: %v", err)
		}
	}()

	writeJSON(w, map[string]string{"status": "sync_started"}, http.StatusAccepted)
}

// Healthz reports liveness.
// GET /api/healthz
func (h *GraphHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, "Invalid ID", "ID must be an integer: "+raw, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
