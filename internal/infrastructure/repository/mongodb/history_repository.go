package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

var _ taskapp.HistoryRepository = (*MongoHistoryRepository)(nil)

// valueDocument keeps the kind next to the payload so null, "" and dates
// round-trip without guessing.
type valueDocument struct {
	Kind string         `bson:"kind"`
	Text string         `bson:"text,omitempty"`
	Ref  *bson.ObjectID `bson:"ref,omitempty"`
	Date *time.Time     `bson:"date,omitempty"`
}

type historyDocument struct {
	ID        bson.ObjectID  `bson:"_id"`
	TaskID    bson.ObjectID  `bson:"task_id"`
	UserID    *bson.ObjectID `bson:"user_id"`
	Field     string         `bson:"field"`
	OldValue  valueDocument  `bson:"old_value"`
	NewValue  valueDocument  `bson:"new_value"`
	CreatedAt time.Time      `bson:"created_at"`
}

// MongoHistoryRepository is the append-only change log.
type MongoHistoryRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// HistoryRepoOption configures MongoHistoryRepository.
type HistoryRepoOption func(*MongoHistoryRepository)

// WithHistoryRepoLogger sets the logger for history repository.
func WithHistoryRepoLogger(logger *slog.Logger) HistoryRepoOption {
	return func(r *MongoHistoryRepository) {
		r.logger = logger
	}
}

// NewMongoHistoryRepository creates a new change log repository
func NewMongoHistoryRepository(collection *mongo.Collection, opts ...HistoryRepoOption) *MongoHistoryRepository {
	r := &MongoHistoryRepository{
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InsertMany appends all records in a single ordered batch.
func (r *MongoHistoryRepository) InsertMany(ctx context.Context, records []history.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]any, 0, len(records))
	for i := range records {
		docs = append(docs, recordToDocument(&records[i]))
	}

	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		r.logger.ErrorContext(ctx, "failed to insert change records",
			slog.String("task_id", records[0].TaskID.String()),
			slog.Int("count", len(records)),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "change record")
	}
	return nil
}

// FindByTask returns the records of a task oldest first.
func (r *MongoHistoryRepository) FindByTask(
	ctx context.Context,
	taskID id.ID,
	limit int,
) ([]history.ChangeRecord, error) {
	opts := options.Find().SetSort(SortByCreatedAsc())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findMany(ctx, r.collection, bson.M{"task_id": taskID.ObjectID()}, opts, documentToRecord, "change record")
}

func recordToDocument(rec *history.ChangeRecord) *historyDocument {
	return &historyDocument{
		ID:        rec.ID.ObjectID(),
		TaskID:    rec.TaskID.ObjectID(),
		UserID:    objectIDPtr(rec.UserID),
		Field:     rec.Field.String(),
		OldValue:  valueToDocument(rec.OldValue),
		NewValue:  valueToDocument(rec.NewValue),
		CreatedAt: rec.CreatedAt,
	}
}

func documentToRecord(doc *historyDocument) (history.ChangeRecord, error) {
	oldValue, err := documentToValue(doc.OldValue)
	if err != nil {
		return history.ChangeRecord{}, err
	}
	newValue, err := documentToValue(doc.NewValue)
	if err != nil {
		return history.ChangeRecord{}, err
	}
	return history.ChangeRecord{
		ID:        id.FromObjectID(doc.ID),
		TaskID:    id.FromObjectID(doc.TaskID),
		UserID:    idPtr(doc.UserID),
		Field:     taskdomain.Field(doc.Field),
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func valueToDocument(v history.Value) valueDocument {
	doc := valueDocument{Kind: string(v.Kind())}
	switch v.Kind() {
	case history.KindText, history.KindEnum:
		doc.Text = v.String()
	case history.KindRef:
		oid := id.ID(v.String()).ObjectID()
		doc.Ref = &oid
	case history.KindDate:
		t, _ := v.Time()
		doc.Date = &t
	case history.KindNull:
	}
	return doc
}

func documentToValue(doc valueDocument) (history.Value, error) {
	switch history.Kind(doc.Kind) {
	case history.KindNull, "":
		return history.Null(), nil
	case history.KindText:
		return history.Text(doc.Text), nil
	case history.KindEnum:
		return history.Enum(doc.Text), nil
	case history.KindRef:
		if doc.Ref == nil {
			return history.Null(), nil
		}
		return history.Ref(id.FromObjectID(*doc.Ref)), nil
	case history.KindDate:
		if doc.Date == nil {
			return history.Null(), nil
		}
		t := doc.Date.UTC()
		return history.Date(&t), nil
	default:
		return history.Value{}, fmt.Errorf("unknown value kind %q", doc.Kind)
	}
}
