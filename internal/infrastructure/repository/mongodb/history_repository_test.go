package mongodb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
	infamongo "github.com/lllypuk/taskboard/internal/infrastructure/mongodb"
	"github.com/lllypuk/taskboard/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/taskboard/tests/testutil"
)

func setupTestHistoryRepository(t *testing.T) *mongodb.MongoHistoryRepository {
	t.Helper()
	db := testutil.SetupTestMongoDB(t)
	return mongodb.NewMongoHistoryRepository(db.Collection(infamongo.CollectionTaskHistory))
}

func TestMongoHistoryRepository_InsertAndFind(t *testing.T) {
	repo := setupTestHistoryRepository(t)
	ctx := context.Background()
	taskID, actor, assignee := id.New(), id.New(), id.New()
	at := time.Now()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []history.ChangeRecord{
		history.NewChangeRecord(taskID, actor, taskdomain.FieldTitle, history.Text("A"), history.Text(""), at),
		history.NewChangeRecord(taskID, actor, taskdomain.FieldStatus,
			history.Enum("todo"), history.Enum("done"), at),
		history.NewChangeRecord(taskID, actor, taskdomain.FieldAssignee, history.Null(), history.Ref(assignee), at),
		history.NewChangeRecord(taskID, id.ID(""), taskdomain.FieldDueDate, history.Date(&due), history.Null(), at),
	}

	require.NoError(t, repo.InsertMany(ctx, records))

	loaded, err := repo.FindByTask(ctx, taskID, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 4)

	assert.Equal(t, []taskdomain.Field{
		taskdomain.FieldTitle, taskdomain.FieldStatus, taskdomain.FieldAssignee, taskdomain.FieldDueDate,
	}, testutil.RecordFields(loaded))

	testutil.AssertChangeRecord(t, loaded[0], taskdomain.FieldTitle, history.Text("A"), history.Text(""))
	assert.Equal(t, history.KindText, loaded[0].NewValue.Kind())
	testutil.AssertChangeRecord(t, loaded[1], taskdomain.FieldStatus, history.Enum("todo"), history.Enum("done"))
	testutil.AssertChangeRecord(t, loaded[2], taskdomain.FieldAssignee, history.Null(), history.Ref(assignee))
	testutil.AssertChangeRecord(t, loaded[3], taskdomain.FieldDueDate, history.Date(&due), history.Null())

	require.NotNil(t, loaded[0].UserID)
	assert.Equal(t, actor, *loaded[0].UserID)
	assert.Nil(t, loaded[3].UserID)
	assert.True(t, records[0].CreatedAt.Equal(loaded[0].CreatedAt))
}

func TestMongoHistoryRepository_FindByTask_OrderAndLimit(t *testing.T) {
	repo := setupTestHistoryRepository(t)
	ctx := context.Background()
	taskID := id.New()
	base := time.Now()

	for i := range 3 {
		rec := history.NewChangeRecord(taskID, id.New(), taskdomain.FieldStatus,
			history.Enum("todo"), history.Enum("done"), base.Add(time.Duration(2-i)*time.Minute))
		require.NoError(t, repo.InsertMany(ctx, []history.ChangeRecord{rec}))
	}

	all, err := repo.FindByTask(ctx, taskID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Before(all[1].CreatedAt))
	assert.True(t, all[1].CreatedAt.Before(all[2].CreatedAt))

	limited, err := repo.FindByTask(ctx, taskID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMongoHistoryRepository_FindByTask_Empty(t *testing.T) {
	repo := setupTestHistoryRepository(t)

	records, err := repo.FindByTask(context.Background(), id.New(), 0)

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMongoHistoryRepository_InsertMany_Empty(t *testing.T) {
	repo := setupTestHistoryRepository(t)

	require.NoError(t, repo.InsertMany(context.Background(), nil))
}
