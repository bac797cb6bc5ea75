package task_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/application/reference"
	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	"github.com/lllypuk/taskboard/internal/domain/task"
	"github.com/lllypuk/taskboard/internal/domain/user"
	"github.com/lllypuk/taskboard/tests/mocks"
)

type fixture struct {
	tasks    *mocks.MockTaskRepository
	history  *mocks.MockHistoryRepository
	users    *mocks.MockUserRepository
	boards   *mocks.MockBoardRepository
	projects *mocks.MockProjectRepository
	comments *mocks.MockCommentRepository
	bus      *mocks.MockEventBus
	metrics  *fakeMetrics
	resolver *reference.Resolver

	project *project.Project
	board   *board.Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tasks:    mocks.NewMockTaskRepository(),
		history:  mocks.NewMockHistoryRepository(),
		users:    mocks.NewMockUserRepository(),
		boards:   mocks.NewMockBoardRepository(),
		projects: mocks.NewMockProjectRepository(),
		comments: mocks.NewMockCommentRepository(),
		bus:      mocks.NewMockEventBus(),
		metrics:  &fakeMetrics{outcomes: map[string]int{}},
	}
	f.resolver = reference.NewResolver(f.users, f.boards, f.projects)

	var err error
	f.project, err = project.NewProject("Platform", "PLAT", "", id.New())
	require.NoError(t, err)
	f.projects.AddProject(f.project)

	f.board, err = board.NewBoard(f.project.ID, "Main", board.TypeKanban)
	require.NoError(t, err)
	f.boards.AddBoard(f.board)

	return f
}

// seedTask stores Task{title:"A", status:todo, priority:medium} last touched an hour ago.
func (f *fixture) seedTask(t *testing.T) *task.Task {
	t.Helper()

	tk, err := task.NewTask(f.board.ID, f.project.ID, "A")
	require.NoError(t, err)
	past := task.Timestamp(time.Now().Add(-time.Hour))
	tk.CreatedAt = past
	tk.UpdatedAt = past
	f.tasks.AddTask(tk)
	return tk
}

func (f *fixture) seedUser(t *testing.T, name string) *user.User {
	t.Helper()

	u, err := user.NewUser(name, name+"@example.com", "hash")
	require.NoError(t, err)
	f.users.AddUser(u)
	return u
}

func (f *fixture) updateUseCase(opts ...taskapp.UpdateOption) *taskapp.UpdateTaskUseCase {
	opts = append([]taskapp.UpdateOption{
		taskapp.WithEventBus(f.bus),
		taskapp.WithMetrics(f.metrics),
	}, opts...)
	return taskapp.NewUpdateTaskUseCase(
		f.tasks,
		taskapp.NewDiffEngine(f.resolver),
		taskapp.NewChangeLogWriter(f.history),
		opts...,
	)
}

type fakeMetrics struct {
	mu            sync.Mutex
	outcomes      map[string]int
	changed       []task.Field
	auditFailures int
}

func (m *fakeMetrics) ObserveUpdate(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *fakeMetrics) RecordChanges(fields []task.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, fields...)
}

func (m *fakeMetrics) AuditWriteFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditFailures++
}
