package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/taskboard/internal/domain/comment"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
)

// Compile-time assertions.
var (
	_ httphandler.CommentService = (*CommentService)(nil)
	_ TaskFinder                 = (*TaskService)(nil)
)

// CommentRepository stores comments.
type CommentRepository interface {
	Create(ctx context.Context, c *comment.Comment) error
	FindByID(ctx context.Context, commentID id.ID) (*comment.Comment, error)
	FindByTask(ctx context.Context, taskID id.ID) ([]*comment.Comment, error)
	Update(ctx context.Context, c *comment.Comment) error
	Delete(ctx context.Context, commentID id.ID) error
}

// TaskFinder loads the task a comment is attached to.
type TaskFinder interface {
	GetTask(ctx context.Context, taskID string) (*task.Task, error)
}

// CommentService реализует httphandler.CommentService
type CommentService struct {
	comments CommentRepository
	tasks    TaskFinder
}

// NewCommentService создаёт новый CommentService.
func NewCommentService(comments CommentRepository, tasks TaskFinder) *CommentService {
	return &CommentService{
		comments: comments,
		tasks:    tasks,
	}
}

// CreateComment добавляет комментарий к существующей задаче.
func (s *CommentService) CreateComment(ctx context.Context, authorID id.ID, taskID, message string) (*comment.Comment, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	c, err := comment.NewComment(t.ID, authorID, message)
	if err != nil {
		return nil, ErrEmptyComment
	}

	if createErr := s.comments.Create(ctx, c); createErr != nil {
		return nil, fmt.Errorf("failed to create comment: %w", createErr)
	}
	return c, nil
}

// ListTaskComments возвращает комментарии задачи, oldest first.
func (s *CommentService) ListTaskComments(ctx context.Context, taskID string) ([]*comment.Comment, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.FindByTask(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// UpdateComment меняет текст. Only the author may edit.
func (s *CommentService) UpdateComment(
	ctx context.Context,
	editorID id.ID,
	commentID, message string,
) (*comment.Comment, error) {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if editErr := c.Edit(message, editorID); editErr != nil {
		if errors.Is(editErr, errs.ErrForbidden) {
			return nil, ErrNotCommentAuthor
		}
		return nil, ErrEmptyComment
	}

	if updateErr := s.comments.Update(ctx, c); updateErr != nil {
		return nil, fmt.Errorf("failed to update comment: %w", updateErr)
	}
	return c, nil
}

// DeleteComment удаляет комментарий. Only the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, actorID id.ID, commentID string) error {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if !c.IsAuthor(actorID) {
		return ErrNotCommentAuthor
	}

	if deleteErr := s.comments.Delete(ctx, c.ID); deleteErr != nil {
		return fmt.Errorf("failed to delete comment: %w", deleteErr)
	}
	return nil
}

func (s *CommentService) load(ctx context.Context, rawID string) (*comment.Comment, error) {
	commentID, err := id.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidCommentID
	}

	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	return c, nil
}
