package codec

import (
	"fmt"
	"io"
	"time"

	"archivum/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlFragment represents the YAML structure for archive data
type yamlFragment struct {
	Entities      []yamlEntity       `yaml:"entities"`
	Relationships []yamlRelationship `yaml:"relationships"`
	Documents     []yamlDocument     `yaml:"documents"`
}

type yamlEntity struct {
	ID          int64  `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description,omitempty"`
}

type yamlRelationship struct {
	FromID int64   `yaml:"from_id"`
	ToID   int64   `yaml:"to_id"`
	Type   string  `yaml:"type"`
	Weight float64 `yaml:"weight,omitempty"`
}

type yamlDocument struct {
	Title     string     `yaml:"title,omitempty"`
	SourceURL string     `yaml:"source_url"`
	Dataset   string     `yaml:"dataset,omitempty"`
	MediaType string     `yaml:"media_type,omitempty"`
	FetchedAt *time.Time `yaml:"fetched_at,omitempty"`
}

// Parse imports archive data from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Fragment, error) {
	var yf yamlFragment
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fragment := domain.NewFragment()

	for _, ye := range yf.Entities {
		fragment.AddEntity(domain.Entity{
			ID:          ye.ID,
			Name:        ye.Name,
			Category:    domain.EntityCategory(ye.Category),
			Description: ye.Description,
		})
	}

	for _, yr := range yf.Relationships {
		rel := domain.Relationship{
			FromID: yr.FromID,
			ToID:   yr.ToID,
			Type:   domain.RelationshipType(yr.Type),
			Weight: yr.Weight,
		}
		// Hand-written YAML usually omits weight; treat that as 1
		if rel.Weight == 0 {
			rel.Weight = 1
		}
		fragment.AddRelationship(rel)
	}

	for _, yd := range yf.Documents {
		doc := domain.Document{
			Title:     yd.Title,
			SourceURL: yd.SourceURL,
			Dataset:   yd.Dataset,
			MediaType: yd.MediaType,
			FetchedAt: yd.FetchedAt,
		}
		if doc.MediaType == "" {
			doc.MediaType = domain.MediaTypeForURL(doc.SourceURL)
		}
		if doc.Dataset == "" {
			doc.Dataset = domain.DatasetForURL(doc.SourceURL)
		}
		fragment.AddDocument(doc)
	}

	return fragment, nil
}

// Export exports archive data to YAML
func (c *YAMLCodec) Export(fragment *domain.Fragment, w io.Writer) error {
	yf := yamlFragment{
		Entities:      make([]yamlEntity, 0, len(fragment.Entities)),
		Relationships: make([]yamlRelationship, 0, len(fragment.Relationships)),
		Documents:     make([]yamlDocument, 0, len(fragment.Documents)),
	}

	for _, e := range fragment.Entities {
		yf.Entities = append(yf.Entities, yamlEntity{
			ID:          e.ID,
			Name:        e.Name,
			Category:    string(e.Category),
			Description: e.Description,
		})
	}

	for _, rel := range fragment.Relationships {
		yf.Relationships = append(yf.Relationships, yamlRelationship{
			FromID: rel.FromID,
			ToID:   rel.ToID,
			Type:   string(rel.Type),
			Weight: rel.Weight,
		})
	}

	for _, d := range fragment.Documents {
		yf.Documents = append(yf.Documents, yamlDocument{
			Title:     d.Title,
			SourceURL: d.SourceURL,
			Dataset:   d.Dataset,
			MediaType: d.MediaType,
			FetchedAt: d.FetchedAt,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yf); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
