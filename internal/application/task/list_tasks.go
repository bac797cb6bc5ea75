package task

import (
	"context"
	"fmt"

	"github.com/lllypuk/taskboard/internal/domain/id"
)

// ListBoardTasksUseCase returns the tasks of a board with assignees populated.
type ListBoardTasksUseCase struct {
	tasks    Repository
	resolver ReferenceResolver
	users    UserLookup
}

// NewListBoardTasksUseCase creates a new ListBoardTasksUseCase
func NewListBoardTasksUseCase(tasks Repository, resolver ReferenceResolver, users UserLookup) *ListBoardTasksUseCase {
	return &ListBoardTasksUseCase{
		tasks:    tasks,
		resolver: resolver,
		users:    users,
	}
}

// Execute lists the board tasks oldest first.
func (uc *ListBoardTasksUseCase) Execute(ctx context.Context, query ListBoardTasksQuery) ([]TaskView, error) {
	brd, err := uc.resolver.ResolveBoard(ctx, query.BoardID)
	if err != nil {
		return nil, err
	}

	tasks, err := uc.tasks.FindByBoard(ctx, brd.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	seen := make(map[id.ID]struct{})
	assigneeIDs := make([]id.ID, 0)
	for _, t := range tasks {
		if t.Assignee == nil {
			continue
		}
		if _, ok := seen[*t.Assignee]; !ok {
			seen[*t.Assignee] = struct{}{}
			assigneeIDs = append(assigneeIDs, *t.Assignee)
		}
	}

	assignees := make(map[id.ID]*AssigneeView, len(assigneeIDs))
	if len(assigneeIDs) > 0 {
		users, findErr := uc.users.FindByIDs(ctx, assigneeIDs)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load assignees: %w", findErr)
		}
		for _, u := range users {
			assignees[u.ID()] = &AssigneeView{ID: u.ID(), Name: u.Name(), Email: u.Email()}
		}
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		view := TaskView{Task: t}
		if t.Assignee != nil {
			view.Assignee = assignees[*t.Assignee]
		}
		views = append(views, view)
	}
	return views, nil
}
