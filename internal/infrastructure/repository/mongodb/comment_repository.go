package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	commentdomain "github.com/lllypuk/taskboard/internal/domain/comment"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

type commentDocument struct {
	ID       bson.ObjectID `bson:"_id"`
	TaskID   bson.ObjectID `bson:"task_id"`
	AuthorID bson.ObjectID `bson:"author_id"`
	Message  string        `bson:"message"`

	BaseDocument `bson:",inline"`
}

// MongoCommentRepository implements comment storage on MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// CommentRepoOption configures MongoCommentRepository.
type CommentRepoOption func(*MongoCommentRepository)

// WithCommentRepoLogger sets the logger for comment repository.
func WithCommentRepoLogger(logger *slog.Logger) CommentRepoOption {
	return func(r *MongoCommentRepository) {
		r.logger = logger
	}
}

// NewMongoCommentRepository creates a new MongoDB comment repository
func NewMongoCommentRepository(collection *mongo.Collection, opts ...CommentRepoOption) *MongoCommentRepository {
	r := &MongoCommentRepository{
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a comment
func (r *MongoCommentRepository) Create(ctx context.Context, c *commentdomain.Comment) error {
	if c == nil || c.ID.IsZero() {
		return errs.ErrInvalidInput
	}
	if _, err := r.collection.InsertOne(ctx, commentToDocument(c)); err != nil {
		return HandleMongoError(err, "comment")
	}
	return nil
}

// FindByID находит комментарий по ID
func (r *MongoCommentRepository) FindByID(ctx context.Context, commentID id.ID) (*commentdomain.Comment, error) {
	if commentID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return findOne(ctx, r.logger, r.collection, bson.M{"_id": commentID.ObjectID()}, documentToComment, "comment")
}

// FindByTask returns task comments oldest first
func (r *MongoCommentRepository) FindByTask(ctx context.Context, taskID id.ID) ([]*commentdomain.Comment, error) {
	opts := options.Find().SetSort(SortByCreatedAsc())
	return findMany(ctx, r.collection, bson.M{"task_id": taskID.ObjectID()}, opts, documentToComment, "comment")
}

// Update replaces the stored comment
func (r *MongoCommentRepository) Update(ctx context.Context, c *commentdomain.Comment) error {
	if c == nil || c.ID.IsZero() {
		return errs.ErrInvalidInput
	}
	return replaceByID(ctx, r.collection, c.ID, commentToDocument(c), "comment")
}

// Delete removes a comment
func (r *MongoCommentRepository) Delete(ctx context.Context, commentID id.ID) error {
	return deleteByID(ctx, r.collection, commentID, "comment")
}

// DeleteByTask removes every comment of a task and returns how many were removed.
func (r *MongoCommentRepository) DeleteByTask(ctx context.Context, taskID id.ID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"task_id": taskID.ObjectID()})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to delete task comments",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()),
		)
		return 0, HandleMongoError(err, "comment")
	}
	return res.DeletedCount, nil
}

func commentToDocument(c *commentdomain.Comment) *commentDocument {
	return &commentDocument{
		ID:       c.ID.ObjectID(),
		TaskID:   c.TaskID.ObjectID(),
		AuthorID: c.AuthorID.ObjectID(),
		Message:  c.Message,
		BaseDocument: BaseDocument{
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
	}
}

func documentToComment(doc *commentDocument) (*commentdomain.Comment, error) {
	return &commentdomain.Comment{
		ID:        id.FromObjectID(doc.ID),
		TaskID:    id.FromObjectID(doc.TaskID),
		AuthorID:  id.FromObjectID(doc.AuthorID),
		Message:   doc.Message,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}
