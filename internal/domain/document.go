package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// Document is one archived source file, identified by the URL it was
// published under. Dataset groups documents by the release batch they
// arrived in.
type Document struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	SourceURL string     `json:"source_url"`
	Dataset   string     `json:"dataset,omitempty"`
	MediaType string     `json:"media_type,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks the document is storable.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.SourceURL) == "" {
		return fmt.Errorf("document source URL is required")
	}
	return nil
}

// TitleOrURL returns the title, falling back to the source file name.
func (d *Document) TitleOrURL() string {
	if d.Title != "" {
		return d.Title
	}
	if u, err := url.Parse(d.SourceURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return d.SourceURL
}

// MediaTypeForURL maps a corpus file link to a coarse media type by file
// extension. Published releases mix scanned documents with video and image
// exhibits.
func MediaTypeForURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".pdf", ".txt", ".doc", ".docx":
		return "document"
	case ".mp4", ".mov", ".avi":
		return "video"
	case ".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff":
		return "image"
	case ".mp3", ".wav", ".m4a":
		return "audio"
	default:
		return "other"
	}
}

// DatasetForURL infers a dataset name from the link path, for manifests
// that do not carry one. Release sites shard files under per-batch
// directories, so the parent directory name is the best available grouping.
func DatasetForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return ""
	}
	dir := path.Base(path.Dir(u.Path))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// Annotation is an operator note attached to an entity, a document, or
// both. At least one reference must be set.
type Annotation struct {
	ID         int64     `json:"id"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	DocumentID *int64    `json:"document_id,omitempty"`
	Author     string    `json:"author,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the annotation is storable.
func (a *Annotation) Validate() error {
	if strings.TrimSpace(a.Body) == "" {
		return fmt.Errorf("annotation body is required")
	}
	if a.EntityID == nil && a.DocumentID == nil {
		return fmt.Errorf("annotation must reference an entity or a document")
	}
	return nil
}
