package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lovenotes/anniversary/internal/content"
)

// updatedAtKey is written next to the content fields and skipped on read.
const updatedAtKey = "_updatedAt"

// MongoRepo stores each content document as one Mongo document whose _id is
// the document id; the collection name maps onto a Mongo collection.
type MongoRepo struct {
	db *mongo.Database
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{db: db}
}

func (m *MongoRepo) Fetch(ctx context.Context, collection, id string) (content.Document, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find %s/%s: %w", collection, id, err)
	}
	out := make(content.Document, len(raw))
	for k, v := range raw {
		if k == "_id" || k == updatedAtKey {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
		} else if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func (m *MongoRepo) MergeWrite(ctx context.Context, collection, id string, fields content.Document) error {
	set := bson.M{updatedAtKey: time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	opts := options.Update().SetUpsert(true)
	if _, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts); err != nil {
		return fmt.Errorf("mongo merge %s/%s: %w", collection, id, err)
	}
	return nil
}
