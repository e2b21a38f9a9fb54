package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"archivum/internal/domain"
	"archivum/internal/service"
)

// ArchiveHandler handles document and annotation API requests.
type ArchiveHandler struct {
	svc *service.ArchiveService
}

// NewArchiveHandler creates a new archive handler.
func NewArchiveHandler(svc *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{svc: svc}
}

// ListDocuments returns documents, optionally filtered.
// GET /api/documents?dataset=set-one&entity=42
func (h *ArchiveHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	dataset := r.URL.Query().Get("dataset")

	var entityID int64
	if raw := r.URL.Query().Get("entity"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, "Invalid entity filter", "entity must be an integer: "+raw, http.StatusBadRequest)
			return
		}
		entityID = id
	}

	docs, err := h.svc.ListDocuments(r.Context(), dataset, entityID)
	if err != nil {
		log.Printf("Failed to list documents: %v", err)
		writeError(w, "Failed to list documents", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, docs, http.StatusOK)
}

// GetDocument returns a single document.
// GET /api/documents/{id}
func (h *ArchiveHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to get document: %v", err)
		writeError(w, "Failed to get document", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, doc, http.StatusOK)
}

// AddDocumentRequest is the request body for registering a document.
type AddDocumentRequest struct {
	Title     string  `json:"title,omitempty"`
	SourceURL string  `json:"source_url"`
	Dataset   string  `json:"dataset,omitempty"`
	MediaType string  `json:"media_type,omitempty"`
	EntityIDs []int64 `json:"entity_ids,omitempty"`
}

// AddDocument registers a document and links it to the entities it mentions.
// POST /api/documents
func (h *ArchiveHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	doc := &domain.Document{
		Title:     req.Title,
		SourceURL: req.SourceURL,
		Dataset:   req.Dataset,
		MediaType: req.MediaType,
	}

	if err := h.svc.AddDocument(r.Context(), doc, req.EntityIDs); err != nil {
		if strings.Contains(err.Error(), "already archived") {
			writeError(w, "Conflict", err.Error(), http.StatusConflict)
			return
		}
		log.Printf("Failed to add document: %v", err)
		writeError(w, "Failed to add document", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, doc, http.StatusCreated)
}

// LinkMentionRequest is the request body for linking a mention.
type LinkMentionRequest struct {
	EntityID int64 `json:"entity_id"`
}

// LinkMention records that a document mentions an entity.
// POST /api/documents/{id}/mentions
func (h *ArchiveHandler) LinkMention(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req LinkMentionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.LinkMention(r.Context(), id, req.EntityID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to link mention: %v", err)
		writeError(w, "Failed to link mention", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]int64{"document_id": id, "entity_id": req.EntityID}, http.StatusCreated)
}

// ListAnnotations returns annotations, optionally filtered by target.
// GET /api/annotations?entity=42&document=7
func (h *ArchiveHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	entityID, ok := queryID(w, r, "entity")
	if !ok {
		return
	}
	documentID, ok := queryID(w, r, "document")
	if !ok {
		return
	}

	annotations, err := h.svc.ListAnnotations(r.Context(), entityID, documentID)
	if err != nil {
		log.Printf("Failed to list annotations: %v", err)
		writeError(w, "Failed to list annotations", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, annotations, http.StatusOK)
}

// CreateAnnotation creates an operator annotation on an entity or document.
// POST /api/annotations
func (h *ArchiveHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var annotation domain.Annotation
	if err := json.NewDecoder(r.Body).Decode(&annotation); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.CreateAnnotation(r.Context(), &annotation); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Unknown target", err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to create annotation: %v", err)
		writeError(w, "Failed to create annotation", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, annotation, http.StatusCreated)
}

// DeleteAnnotation deletes an annotation.
// DELETE /api/annotations/{id}
func (h *ArchiveHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAnnotation(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete annotation: %v", err)
		writeError(w, "Failed to delete annotation", err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportManifest imports documents from a manifest of corpus file links.
// POST /api/import/manifest
func (h *ArchiveHandler) ImportManifest(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.ImportManifest(r.Context(), data)
	if err != nil {
		log.Printf("Failed to import manifest: %v", err)
		writeError(w, "Failed to import manifest", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// queryID parses an optional integer query parameter, writing a 400 on
// malformed input. Absent parameters return nil.
func queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, "Invalid "+name+" filter", name+" must be an integer: "+raw, http.StatusBadRequest)
		return nil, false
	}
	return &id, true
}
