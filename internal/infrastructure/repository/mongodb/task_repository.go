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
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// Compile-time assertion that MongoTaskRepository implements taskapp.Repository.
var _ taskapp.Repository = (*MongoTaskRepository)(nil)

// taskDocument represents a task in MongoDB
type taskDocument struct {
	ID          bson.ObjectID  `bson:"_id"`
	BoardID     bson.ObjectID  `bson:"board_id"`
	ProjectID   bson.ObjectID  `bson:"project_id"`
	Title       string         `bson:"title"`
	Description string         `bson:"description"`
	Status      string         `bson:"status"`
	Priority    string         `bson:"priority"`
	Assignee    *bson.ObjectID `bson:"assignee"`
	DueDate     *time.Time     `bson:"due_date"`

	BaseDocument `bson:",inline"`
}

// taskFieldKeys maps mutable fields to document keys.
//
//nolint:gochecknoglobals // static mapping
var taskFieldKeys = map[taskdomain.Field]string{
	taskdomain.FieldTitle:       "title",
	taskdomain.FieldDescription: "description",
	taskdomain.FieldStatus:      "status",
	taskdomain.FieldPriority:    "priority",
	taskdomain.FieldAssignee:    "assignee",
	taskdomain.FieldDueDate:     "due_date",
}

// MongoTaskRepository stores tasks
type MongoTaskRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// TaskRepoOption configures MongoTaskRepository.
type TaskRepoOption func(*MongoTaskRepository)

// WithTaskRepoLogger sets the logger for task repository.
func WithTaskRepoLogger(logger *slog.Logger) TaskRepoOption {
	return func(r *MongoTaskRepository) {
		r.logger = logger
	}
}

// NewMongoTaskRepository creates a new MongoDB task repository
func NewMongoTaskRepository(collection *mongo.Collection, opts ...TaskRepoOption) *MongoTaskRepository {
	r := &MongoTaskRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FindByID finds a task by ID
func (r *MongoTaskRepository) FindByID(ctx context.Context, taskID id.ID) (*taskdomain.Task, error) {
	if taskID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return findOne(ctx, r.logger, r.collection, bson.M{"_id": taskID.ObjectID()}, documentToTask, "task")
}

// FindByBoard returns board tasks oldest first
func (r *MongoTaskRepository) FindByBoard(ctx context.Context, boardID id.ID) ([]*taskdomain.Task, error) {
	opts := options.Find().SetSort(SortByCreatedAsc())
	return findMany(ctx, r.collection, bson.M{"board_id": boardID.ObjectID()}, opts, documentToTask, "task")
}

// Create inserts a new task
func (r *MongoTaskRepository) Create(ctx context.Context, t *taskdomain.Task) error {
	if t == nil || t.ID.IsZero() {
		return errs.ErrInvalidInput
	}

	if _, err := r.collection.InsertOne(ctx, taskToDocument(t)); err != nil {
		r.logger.ErrorContext(ctx, "failed to insert task",
			slog.String("task_id", t.ID.String()),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "task")
	}
	return nil
}

// Update sets the given fields and updated_at with one UpdateOne call.
// With a non-zero precondition the filter also matches the old updated_at.
func (r *MongoTaskRepository) Update(
	ctx context.Context,
	t *taskdomain.Task,
	fields []taskdomain.Field,
	precondition time.Time,
) error {
	if t == nil || t.ID.IsZero() {
		return errs.ErrInvalidInput
	}

	doc := taskToDocument(t)
	set := bson.D{}
	for _, f := range fields {
		key, ok := taskFieldKeys[f]
		if !ok {
			return fmt.Errorf("%w: field %q is not updatable", errs.ErrInvalidInput, f)
		}
		set = append(set, bson.E{Key: key, Value: documentValue(doc, f)})
	}
	set = append(set, bson.E{Key: "updated_at", Value: doc.UpdatedAt})

	filter := bson.D{{Key: "_id", Value: doc.ID}}
	if !precondition.IsZero() {
		filter = append(filter, bson.E{Key: "updated_at", Value: precondition})
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to update task",
			slog.String("task_id", t.ID.String()),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "task")
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if precondition.IsZero() {
		return errs.ErrNotFound
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		return HandleMongoError(err, "task")
	}
	if count == 0 {
		return errs.ErrNotFound
	}
	return errs.ErrConcurrentModification
}

// Delete removes a task
func (r *MongoTaskRepository) Delete(ctx context.Context, taskID id.ID) error {
	return deleteByID(ctx, r.collection, taskID, "task")
}

func documentValue(doc *taskDocument, f taskdomain.Field) any {
	switch f {
	case taskdomain.FieldTitle:
		return doc.Title
	case taskdomain.FieldDescription:
		return doc.Description
	case taskdomain.FieldStatus:
		return doc.Status
	case taskdomain.FieldPriority:
		return doc.Priority
	case taskdomain.FieldAssignee:
		return doc.Assignee
	case taskdomain.FieldDueDate:
		return doc.DueDate
	default:
		return nil
	}
}

func taskToDocument(t *taskdomain.Task) *taskDocument {
	doc := &taskDocument{
		ID:          t.ID.ObjectID(),
		BoardID:     t.BoardID.ObjectID(),
		ProjectID:   t.ProjectID.ObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Assignee:    objectIDPtr(t.Assignee),
		BaseDocument: BaseDocument{
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
	}
	if t.DueDate != nil {
		due := taskdomain.Timestamp(*t.DueDate)
		doc.DueDate = &due
	}
	return doc
}

func documentToTask(doc *taskDocument) (*taskdomain.Task, error) {
	t := &taskdomain.Task{
		ID:          id.FromObjectID(doc.ID),
		BoardID:     id.FromObjectID(doc.BoardID),
		ProjectID:   id.FromObjectID(doc.ProjectID),
		Title:       doc.Title,
		Description: doc.Description,
		Status:      taskdomain.Status(doc.Status),
		Priority:    taskdomain.Priority(doc.Priority),
		Assignee:    idPtr(doc.Assignee),
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
	if doc.DueDate != nil {
		due := doc.DueDate.UTC()
		t.DueDate = &due
	}

	// Stored enums must stay within their sets
	if !t.Status.IsValid() || !t.Priority.IsValid() {
		return nil, fmt.Errorf("%w: task %s has status %q priority %q",
			errs.ErrInvalidEnum, t.ID, doc.Status, doc.Priority)
	}
	return t, nil
}
