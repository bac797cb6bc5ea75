package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	userdomain "github.com/lllypuk/taskboard/internal/domain/user"
)

// userDocument represents a user in MongoDB
type userDocument struct {
	ID           bson.ObjectID `bson:"_id"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`

	BaseDocument `bson:",inline"`
}

// MongoUserRepository implements user storage on MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// UserRepoOption configures MongoUserRepository.
type UserRepoOption func(*MongoUserRepository)

// WithUserRepoLogger sets the logger for user repository.
func WithUserRepoLogger(logger *slog.Logger) UserRepoOption {
	return func(r *MongoUserRepository) {
		r.logger = logger
	}
}

// NewMongoUserRepository creates a new MongoDB user repository
func NewMongoUserRepository(collection *mongo.Collection, opts ...UserRepoOption) *MongoUserRepository {
	r := &MongoUserRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create inserts a user. A taken email yields errs.ErrAlreadyExists.
func (r *MongoUserRepository) Create(ctx context.Context, u *userdomain.User) error {
	if u == nil {
		return errs.ErrInvalidInput
	}

	doc := userDocument{
		ID:           u.ID().ObjectID(),
		Name:         u.Name(),
		Email:        u.Email(),
		PasswordHash: u.PasswordHash(),
		BaseDocument: BaseDocument{
			CreatedAt: u.CreatedAt(),
			UpdatedAt: u.UpdatedAt(),
		},
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			r.logger.ErrorContext(ctx, "failed to insert user",
				slog.String("user_id", u.ID().String()),
				slog.String("error", err.Error()),
			)
		}
		return HandleMongoError(err, "user")
	}
	return nil
}

// FindByID находит пользователя по ID
func (r *MongoUserRepository) FindByID(ctx context.Context, userID id.ID) (*userdomain.User, error) {
	if userID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return findOne(ctx, r.logger, r.collection, bson.M{"_id": userID.ObjectID()}, documentToUser, "user")
}

// FindByEmail находит пользователя по email
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	normalized, err := userdomain.NormalizeEmail(email)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	return findOne(ctx, r.logger, r.collection, bson.M{"email": normalized}, documentToUser, "user")
}

// FindByIDs returns the users that exist among ids. Unknown ids are skipped.
func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []id.ID) ([]*userdomain.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*userdomain.User{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": oids}}
	return findMany(ctx, r.collection, filter, options.Find(), documentToUser, "user")
}

func documentToUser(doc *userDocument) (*userdomain.User, error) {
	return userdomain.Reconstruct(
		id.FromObjectID(doc.ID),
		doc.Name,
		doc.Email,
		doc.PasswordHash,
		doc.CreatedAt.UTC(),
		doc.UpdatedAt.UTC(),
	), nil
}
