// Package mongodb provides MongoDB infrastructure components including index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionUsers       = "users"
	CollectionProjects    = "projects"
	CollectionBoards      = "boards"
	CollectionTasks       = "tasks"
	CollectionTaskHistory = "task_history"
	CollectionComments    = "comments"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Name       string
	Keys       bson.D
	Options    *options.IndexOptionsBuilder
}

// CreateAllIndexes creates all necessary indexes for the application.
// This function is idempotent - calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, GetAllIndexDefinitions())
}

// EnsureIndexes is an alias for CreateAllIndexes for semantic clarity.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return CreateAllIndexes(ctx, db)
}

// CreateCollectionIndexes creates indexes for a specific collection only.
func CreateCollectionIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	var indexes []IndexDefinition

	switch collectionName {
	case CollectionUsers:
		indexes = GetUserIndexes()
	case CollectionProjects:
		indexes = GetProjectIndexes()
	case CollectionBoards:
		indexes = GetBoardIndexes()
	case CollectionTasks:
		indexes = GetTaskIndexes()
	case CollectionTaskHistory:
		indexes = GetTaskHistoryIndexes()
	case CollectionComments:
		indexes = GetCommentIndexes()
	default:
		return fmt.Errorf("unknown collection: %s", collectionName)
	}

	return createIndexes(ctx, db, indexes)
}

func createIndexes(ctx context.Context, db *mongo.Database, indexes []IndexDefinition) error {
	for _, idx := range indexes {
		opts := idx.Options
		if opts == nil {
			opts = options.Index()
		}
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: opts.SetName(idx.Name),
		}

		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index %s on collection %s: %w", idx.Name, idx.Collection, err)
		}
	}
	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition

	indexes = append(indexes, GetUserIndexes()...)
	indexes = append(indexes, GetProjectIndexes()...)
	indexes = append(indexes, GetBoardIndexes()...)
	indexes = append(indexes, GetTaskIndexes()...)
	indexes = append(indexes, GetTaskHistoryIndexes()...)
	indexes = append(indexes, GetCommentIndexes()...)

	return indexes
}

// GetUserIndexes returns index definitions for the users collection.
func GetUserIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Unique index for email
			Collection: CollectionUsers,
			Name:       "idx_users_email_unique",
			Keys:       bson.D{{Key: "email", Value: 1}},
			Options:    options.Index().SetUnique(true),
		},
	}
}

// GetProjectIndexes returns index definitions for the projects collection.
func GetProjectIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionProjects,
			Name:       "idx_projects_key_unique",
			Keys:       bson.D{{Key: "key", Value: 1}},
			Options:    options.Index().SetUnique(true),
		},
		{
			Collection: CollectionProjects,
			Name:       "idx_projects_owner",
			Keys:       bson.D{{Key: "owner_id", Value: 1}},
		},
	}
}

// GetBoardIndexes returns index definitions for the boards collection.
func GetBoardIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionBoards,
			Name:       "idx_boards_project_time",
			Keys:       bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}
}

// GetTaskIndexes returns index definitions for the tasks collection.
func GetTaskIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Board view, oldest first
			Collection: CollectionTasks,
			Name:       "idx_tasks_board_time",
			Keys:       bson.D{{Key: "board_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Collection: CollectionTasks,
			Name:       "idx_tasks_assignee",
			Keys:       bson.D{{Key: "assignee", Value: 1}},
			Options:    options.Index().SetSparse(true),
		},
	}
}

// GetTaskHistoryIndexes returns index definitions for the change log.
func GetTaskHistoryIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionTaskHistory,
			Name:       "idx_task_history_task_time",
			Keys:       bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Collection: CollectionTaskHistory,
			Name:       "idx_task_history_user",
			Keys:       bson.D{{Key: "user_id", Value: 1}},
		},
	}
}

// GetCommentIndexes returns index definitions for the comments collection.
func GetCommentIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionComments,
			Name:       "idx_comments_task_time",
			Keys:       bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}
}
