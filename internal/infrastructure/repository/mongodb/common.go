package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// HandleMongoError преобразует error MongoDB in доменную error.
// returns:
//   - nil if err == nil
//   - errs.ErrNotFound if документ not найден
//   - errs.ErrAlreadyExists if нарушен unique constraint
//   - wrapped error for остальных случаев
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// BaseDocument contains общие fields for all документов MongoDB.
type BaseDocument struct {
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SortByCreatedAsc orders oldest first with _id as a tie breaker.
func SortByCreatedAsc() bson.D {
	return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
}

// objectIDs converts domain ids, skipping malformed ones.
func objectIDs(ids []id.ID) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, v := range ids {
		if oid := v.ObjectID(); !oid.IsZero() {
			out = append(out, oid)
		}
	}
	return out
}

// objectIDPtr returns nil for the zero ID.
func objectIDPtr(v *id.ID) *bson.ObjectID {
	if v == nil || v.IsZero() {
		return nil
	}
	oid := v.ObjectID()
	return &oid
}

// idPtr is the inverse of objectIDPtr.
func idPtr(oid *bson.ObjectID) *id.ID {
	if oid == nil || oid.IsZero() {
		return nil
	}
	return id.FromObjectID(*oid).Ptr()
}

// findOne decodes a single document into a domain object.
func findOne[T any, R any](
	ctx context.Context,
	logger *slog.Logger,
	collection *mongo.Collection,
	filter any,
	decoder func(*T) (R, error),
	resourceType string,
) (R, error) {
	var zero R
	var doc T
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			logger.ErrorContext(ctx, "failed to find "+resourceType,
				slog.Any("filter", filter),
				slog.String("error", err.Error()),
			)
		}
		return zero, HandleMongoError(err, resourceType)
	}
	return decoder(&doc)
}

// findMany performs общую логику получения списка документов.
// returns срез domain объектов (never nil).
func findMany[T any, R any](
	ctx context.Context,
	collection *mongo.Collection,
	filter any,
	opts *options.FindOptionsBuilder,
	decoder func(*T) (R, error),
	resourceType string,
) ([]R, error) {
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, HandleMongoError(err, resourceType)
	}
	defer cursor.Close(ctx)

	results := make([]R, 0)
	for cursor.Next(ctx) {
		var doc T
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", resourceType, decodeErr)
		}

		item, docErr := decoder(&doc)
		if docErr != nil {
			return nil, docErr
		}
		results = append(results, item)
	}

	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return results, nil
}

// deleteByID removes one document or reports errs.ErrNotFound.
func deleteByID(ctx context.Context, collection *mongo.Collection, docID id.ID, resourceType string) error {
	res, err := collection.DeleteOne(ctx, bson.M{"_id": docID.ObjectID()})
	if err != nil {
		return HandleMongoError(err, resourceType)
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// replaceByID replaces one document or reports errs.ErrNotFound.
func replaceByID(ctx context.Context, collection *mongo.Collection, docID id.ID, doc any, resourceType string) error {
	res, err := collection.ReplaceOne(ctx, bson.M{"_id": docID.ObjectID()}, doc)
	if err != nil {
		return HandleMongoError(err, resourceType)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}
