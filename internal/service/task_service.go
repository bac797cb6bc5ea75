package service

import (
	"context"

	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/task"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
)

// Compile-time assertion that TaskService implements httphandler.TaskService.
var _ httphandler.TaskService = (*TaskService)(nil)

// CreateTaskUseCase определяет интерфейс для use case создания задачи.
type CreateTaskUseCase interface {
	Execute(ctx context.Context, cmd taskapp.CreateTaskCommand) (taskapp.TaskResult, error)
}

// UpdateTaskUseCase определяет интерфейс для use case обновления задачи.
type UpdateTaskUseCase interface {
	Execute(ctx context.Context, cmd taskapp.UpdateTaskCommand) (taskapp.UpdateResult, error)
}

// GetTaskUseCase определяет интерфейс для use case получения задачи.
type GetTaskUseCase interface {
	Execute(ctx context.Context, query taskapp.GetTaskQuery) (taskapp.TaskResult, error)
}

// DeleteTaskUseCase определяет интерфейс для use case удаления задачи.
type DeleteTaskUseCase interface {
	Execute(ctx context.Context, cmd taskapp.DeleteTaskCommand) error
}

// ListBoardTasksUseCase определяет интерфейс для use case списка задач доски.
type ListBoardTasksUseCase interface {
	Execute(ctx context.Context, query taskapp.ListBoardTasksQuery) ([]taskapp.TaskView, error)
}

// ListHistoryUseCase определяет интерфейс для use case истории задачи.
type ListHistoryUseCase interface {
	Execute(ctx context.Context, query taskapp.ListHistoryQuery) ([]history.ChangeRecord, error)
}

// TaskService реализует httphandler.TaskService поверх use cases.
type TaskService struct {
	createUC  CreateTaskUseCase
	updateUC  UpdateTaskUseCase
	getUC     GetTaskUseCase
	deleteUC  DeleteTaskUseCase
	listUC    ListBoardTasksUseCase
	historyUC ListHistoryUseCase
}

// TaskServiceConfig содержит зависимости для TaskService.
type TaskServiceConfig struct {
	CreateUC  CreateTaskUseCase
	UpdateUC  UpdateTaskUseCase
	GetUC     GetTaskUseCase
	DeleteUC  DeleteTaskUseCase
	ListUC    ListBoardTasksUseCase
	HistoryUC ListHistoryUseCase
}

// NewTaskService создаёт новый TaskService.
func NewTaskService(cfg TaskServiceConfig) *TaskService {
	return &TaskService{
		createUC:  cfg.CreateUC,
		updateUC:  cfg.UpdateUC,
		getUC:     cfg.GetUC,
		deleteUC:  cfg.DeleteUC,
		listUC:    cfg.ListUC,
		historyUC: cfg.HistoryUC,
	}
}

// CreateTask создаёт задачу.
func (s *TaskService) CreateTask(ctx context.Context, cmd taskapp.CreateTaskCommand) (taskapp.TaskResult, error) {
	return s.createUC.Execute(ctx, cmd)
}

// UpdateTask применяет частичное обновление.
func (s *TaskService) UpdateTask(ctx context.Context, cmd taskapp.UpdateTaskCommand) (taskapp.UpdateResult, error) {
	return s.updateUC.Execute(ctx, cmd)
}

// GetTask возвращает задачу по ID.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	result, err := s.getUC.Execute(ctx, taskapp.GetTaskQuery{TaskID: taskID})
	if err != nil {
		return nil, err
	}
	return result.Task, nil
}

// ListBoardTasks возвращает задачи доски.
func (s *TaskService) ListBoardTasks(ctx context.Context, boardID string) ([]taskapp.TaskView, error) {
	return s.listUC.Execute(ctx, taskapp.ListBoardTasksQuery{BoardID: boardID})
}

// DeleteTask удаляет задачу.
func (s *TaskService) DeleteTask(ctx context.Context, cmd taskapp.DeleteTaskCommand) error {
	return s.deleteUC.Execute(ctx, cmd)
}

// ListHistory возвращает историю изменений задачи.
func (s *TaskService) ListHistory(ctx context.Context, taskID string) ([]history.ChangeRecord, error) {
	return s.historyUC.Execute(ctx, taskapp.ListHistoryQuery{TaskID: taskID})
}
