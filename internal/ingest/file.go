package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"archivum/internal/codec"
	"archivum/internal/domain"
)

// FileSource loads a dataset file from local disk. The format follows the
// file extension: .yaml/.yml or .json fragments.
type FileSource struct {
	path string
}

// NewFileSource creates a file source for the given dataset path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the source identifier
func (s *FileSource) Name() string {
	return "dataset-file"
}

// Path returns the watched dataset path
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and parses the dataset file
func (s *FileSource) Load(ctx context.Context) (*domain.Fragment, error) {
	importer, err := importerForPath(s.path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	fragment, err := importer.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(s.path), err)
	}

	return fragment, nil
}

// importerForPath picks the codec matching a dataset file extension
func importerForPath(path string) (codec.Importer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codec.NewYAMLCodec(), nil
	case ".json":
		return codec.NewJSONCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", filepath.Ext(path))
	}
}
