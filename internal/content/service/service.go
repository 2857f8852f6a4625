package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/internal/content/repository"
	"github.com/lovenotes/anniversary/pkg/logger"
	"github.com/lovenotes/anniversary/pkg/metrics"
)

// Service defines the content operations used by the page and handler layers.
type Service interface {
	// Load never fails: a missing or unreachable document yields an empty one
	// so the page renders defaults instead of blocking.
	Load(ctx context.Context) content.Document
	// Save merge-writes the given keys into the document.
	Save(ctx context.Context, updates content.Document) error
}

// New returns a Service bound to one collection/document pair.
func New(repo repository.Repository, collection, docID string) Service {
	return &contentService{repo: repo, collection: collection, docID: docID}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo(), "site_content", "main_content")
}

type contentService struct {
	repo       repository.Repository
	collection string
	docID      string
}

func (s *contentService) Load(ctx context.Context) content.Document {
	d, err := s.repo.Fetch(ctx, s.collection, s.docID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warnf("content fetch %s/%s failed, rendering defaults: %v", s.collection, s.docID, err)
			metrics.ContentFetchFailures.Inc()
		}
		return content.Document{}
	}
	if d == nil {
		return content.Document{}
	}
	return d
}

func (s *contentService) Save(ctx context.Context, updates content.Document) error {
	if err := s.repo.MergeWrite(ctx, s.collection, s.docID, updates); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	logger.Debugf("content %s/%s: merged %d keys", s.collection, s.docID, len(updates))
	return nil
}
