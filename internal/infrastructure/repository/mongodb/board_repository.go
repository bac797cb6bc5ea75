package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	boarddomain "github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

type columnDocument struct {
	Order  int    `bson:"order"`
	Name   string `bson:"name"`
	Status string `bson:"status"`
}

type boardDocument struct {
	ID        bson.ObjectID    `bson:"_id"`
	ProjectID bson.ObjectID    `bson:"project_id"`
	Name      string           `bson:"name"`
	Type      string           `bson:"type"`
	Columns   []columnDocument `bson:"columns"`

	BaseDocument `bson:",inline"`
}

// MongoBoardRepository implements board storage on MongoDB
type MongoBoardRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// BoardRepoOption configures MongoBoardRepository.
type BoardRepoOption func(*MongoBoardRepository)

// WithBoardRepoLogger sets the logger for board repository.
func WithBoardRepoLogger(logger *slog.Logger) BoardRepoOption {
	return func(r *MongoBoardRepository) {
		r.logger = logger
	}
}

// NewMongoBoardRepository creates a new MongoDB board repository
func NewMongoBoardRepository(collection *mongo.Collection, opts ...BoardRepoOption) *MongoBoardRepository {
	r := &MongoBoardRepository{
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a board
func (r *MongoBoardRepository) Create(ctx context.Context, b *boarddomain.Board) error {
	if b == nil || b.ID.IsZero() {
		return errs.ErrInvalidInput
	}
	if _, err := r.collection.InsertOne(ctx, boardToDocument(b)); err != nil {
		return HandleMongoError(err, "board")
	}
	return nil
}

// FindByID находит доску по ID
func (r *MongoBoardRepository) FindByID(ctx context.Context, boardID id.ID) (*boarddomain.Board, error) {
	if boardID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return findOne(ctx, r.logger, r.collection, bson.M{"_id": boardID.ObjectID()}, documentToBoard, "board")
}

// FindByProject returns project boards oldest first
func (r *MongoBoardRepository) FindByProject(ctx context.Context, projectID id.ID) ([]*boarddomain.Board, error) {
	opts := options.Find().SetSort(SortByCreatedAsc())
	return findMany(ctx, r.collection, bson.M{"project_id": projectID.ObjectID()}, opts, documentToBoard, "board")
}

// Update replaces the stored board
func (r *MongoBoardRepository) Update(ctx context.Context, b *boarddomain.Board) error {
	if b == nil || b.ID.IsZero() {
		return errs.ErrInvalidInput
	}
	return replaceByID(ctx, r.collection, b.ID, boardToDocument(b), "board")
}

// Delete removes a board
func (r *MongoBoardRepository) Delete(ctx context.Context, boardID id.ID) error {
	return deleteByID(ctx, r.collection, boardID, "board")
}

func boardToDocument(b *boarddomain.Board) *boardDocument {
	columns := make([]columnDocument, 0, len(b.Columns))
	for _, c := range b.Columns {
		columns = append(columns, columnDocument{Order: c.Order, Name: c.Name, Status: string(c.Status)})
	}
	return &boardDocument{
		ID:        b.ID.ObjectID(),
		ProjectID: b.ProjectID.ObjectID(),
		Name:      b.Name,
		Type:      string(b.Type),
		Columns:   columns,
		BaseDocument: BaseDocument{
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		},
	}
}

func documentToBoard(doc *boardDocument) (*boarddomain.Board, error) {
	columns := make([]boarddomain.Column, 0, len(doc.Columns))
	for _, c := range doc.Columns {
		columns = append(columns, boarddomain.Column{
			Order:  c.Order,
			Name:   c.Name,
			Status: taskdomain.Status(c.Status),
		})
	}
	return &boarddomain.Board{
		ID:        id.FromObjectID(doc.ID),
		ProjectID: id.FromObjectID(doc.ProjectID),
		Name:      doc.Name,
		Type:      boarddomain.Type(doc.Type),
		Columns:   columns,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}
