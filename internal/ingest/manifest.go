package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"archivum/internal/codec"
	"archivum/internal/domain"
)

const defaultFetchConcurrency = 4

// ManifestSource fetches release manifests over HTTP and folds their
// document links into one fragment. Release sites publish one manifest per
// dataset, so a source usually watches several URLs.
type ManifestSource struct {
	urls        []string
	client      *http.Client
	concurrency int
}

// NewManifestSource creates a manifest source for the given URLs
func NewManifestSource(urls []string, concurrency int) *ManifestSource {
	if concurrency < 1 {
		concurrency = defaultFetchConcurrency
	}
	return &ManifestSource{
		urls:        urls,
		client:      &http.Client{Timeout: 30 * time.Second},
		concurrency: concurrency,
	}
}

// Name returns the source identifier
func (s *ManifestSource) Name() string {
	return "manifests"
}

// Load fetches every manifest concurrently and merges the results,
// deduplicating documents that appear in more than one manifest.
func (s *ManifestSource) Load(ctx context.Context) (*domain.Fragment, error) {
	fragments := make([]*domain.Fragment, len(s.urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, manifestURL := range s.urls {
		g.Go(func() error {
			fragment, err := s.fetch(gctx, manifestURL)
			if err != nil {
				return fmt.Errorf("manifest %s: %w", manifestURL, err)
			}
			fragments[i] = fragment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := domain.NewFragment()
	seen := make(map[string]bool)
	for _, fragment := range fragments {
		for _, doc := range fragment.Documents {
			if seen[doc.SourceURL] {
				continue
			}
			seen[doc.SourceURL] = true
			merged.AddDocument(doc)
		}
	}

	return merged, nil
}

// fetch downloads and parses a single manifest
func (s *ManifestSource) fetch(ctx context.Context, manifestURL string) (*domain.Fragment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return codec.NewManifestCodec().Parse(resp.Body)
}
