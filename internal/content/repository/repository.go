package repository

import (
	"context"
	"errors"

	"github.com/lovenotes/anniversary/internal/content"
)

var (
	ErrNotFound = errors.New("content document not found")
)

// Repository is the content store boundary: a single flat document
// addressed by collection and id.
type Repository interface {
	// Fetch returns the stored document, or ErrNotFound when it does not exist.
	Fetch(ctx context.Context, collection, id string) (content.Document, error)
	// MergeWrite upserts only the given keys; keys absent from fields are kept.
	MergeWrite(ctx context.Context, collection, id string, fields content.Document) error
}
