package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	projectdomain "github.com/lllypuk/taskboard/internal/domain/project"
)

type projectDocument struct {
	ID          bson.ObjectID `bson:"_id"`
	Name        string        `bson:"name"`
	Key         string        `bson:"key"`
	Description string        `bson:"description"`
	OwnerID     bson.ObjectID `bson:"owner_id"`
	Archived    bool          `bson:"archived"`

	BaseDocument `bson:",inline"`
}

// MongoProjectRepository implements project storage on MongoDB
type MongoProjectRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// ProjectRepoOption configures MongoProjectRepository.
type ProjectRepoOption func(*MongoProjectRepository)

// WithProjectRepoLogger sets the logger for project repository.
func WithProjectRepoLogger(logger *slog.Logger) ProjectRepoOption {
	return func(r *MongoProjectRepository) {
		r.logger = logger
	}
}

// NewMongoProjectRepository creates a new MongoDB project repository
func NewMongoProjectRepository(collection *mongo.Collection, opts ...ProjectRepoOption) *MongoProjectRepository {
	r := &MongoProjectRepository{
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a project. A taken key yields errs.ErrAlreadyExists.
func (r *MongoProjectRepository) Create(ctx context.Context, p *projectdomain.Project) error {
	if p == nil || p.ID.IsZero() {
		return errs.ErrInvalidInput
	}
	if _, err := r.collection.InsertOne(ctx, projectToDocument(p)); err != nil {
		return HandleMongoError(err, "project")
	}
	return nil
}

// FindByID находит проект по ID
func (r *MongoProjectRepository) FindByID(ctx context.Context, projectID id.ID) (*projectdomain.Project, error) {
	if projectID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return findOne(ctx, r.logger, r.collection, bson.M{"_id": projectID.ObjectID()}, documentToProject, "project")
}

// List returns projects sorted by key.
func (r *MongoProjectRepository) List(ctx context.Context, includeArchived bool) ([]*projectdomain.Project, error) {
	filter := bson.M{}
	if !includeArchived {
		filter["archived"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}})
	return findMany(ctx, r.collection, filter, opts, documentToProject, "project")
}

// Update replaces the stored project.
func (r *MongoProjectRepository) Update(ctx context.Context, p *projectdomain.Project) error {
	if p == nil || p.ID.IsZero() {
		return errs.ErrInvalidInput
	}
	return replaceByID(ctx, r.collection, p.ID, projectToDocument(p), "project")
}

// Delete removes a project.
func (r *MongoProjectRepository) Delete(ctx context.Context, projectID id.ID) error {
	return deleteByID(ctx, r.collection, projectID, "project")
}

func projectToDocument(p *projectdomain.Project) *projectDocument {
	return &projectDocument{
		ID:          p.ID.ObjectID(),
		Name:        p.Name,
		Key:         p.Key,
		Description: p.Description,
		OwnerID:     p.OwnerID.ObjectID(),
		Archived:    p.Archived,
		BaseDocument: BaseDocument{
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
	}
}

func documentToProject(doc *projectDocument) (*projectdomain.Project, error) {
	return &projectdomain.Project{
		ID:          id.FromObjectID(doc.ID),
		Name:        doc.Name,
		Key:         doc.Key,
		Description: doc.Description,
		OwnerID:     id.FromObjectID(doc.OwnerID),
		Archived:    doc.Archived,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}, nil
}
