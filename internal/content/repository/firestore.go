package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lovenotes/anniversary/internal/content"
)

// FirestoreRepo maps collection/id directly onto a Firestore document.
type FirestoreRepo struct {
	client *firestore.Client
}

func NewFirestoreRepo(client *firestore.Client) *FirestoreRepo {
	return &FirestoreRepo{client: client}
}

func (f *FirestoreRepo) Fetch(ctx context.Context, collection, id string) (content.Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	data := snap.Data()
	out := make(content.Document, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		} else if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func (f *FirestoreRepo) MergeWrite(ctx context.Context, collection, id string, fields content.Document) error {
	if len(fields) == 0 {
		return nil
	}
	data := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		data[k] = v
	}
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore merge %s/%s: %w", collection, id, err)
	}
	return nil
}
