package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"archivum/internal/domain"
)

// ManifestCodec imports document-link manifests: the per-dataset files
// published alongside record releases, each a JSON array of file URLs.
// Both the bare array form and the wrapped {"name": ..., "links": [...]}
// form are accepted. The result is a document-only fragment.
type ManifestCodec struct{}

// NewManifestCodec creates a new manifest codec
func NewManifestCodec() *ManifestCodec {
	return &ManifestCodec{}
}

// Format returns the codec format identifier
func (c *ManifestCodec) Format() string {
	return "manifest"
}

// manifestFile is the wrapped manifest form
type manifestFile struct {
	Name  string   `json:"name"`
	Links []string `json:"links"`
}

// Parse imports documents from a link manifest
func (c *ManifestCodec) Parse(r io.Reader) (*domain.Fragment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("manifest is empty")
	}

	var name string
	var links []string
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &links); err != nil {
			return nil, fmt.Errorf("failed to parse manifest links: %w", err)
		}
	} else {
		var mf manifestFile
		if err := json.Unmarshal(trimmed, &mf); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		name = mf.Name
		links = mf.Links
	}

	fragment := domain.NewFragment()
	seen := make(map[string]bool, len(links))

	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true

		dataset := name
		if dataset == "" {
			dataset = domain.DatasetForURL(link)
		}

		fragment.AddDocument(domain.Document{
			SourceURL: link,
			Dataset:   dataset,
			MediaType: domain.MediaTypeForURL(link),
		})
	}

	return fragment, nil
}
