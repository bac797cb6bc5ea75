package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
)

// Compile-time assertion that BoardService implements httphandler.BoardService.
var _ httphandler.BoardService = (*BoardService)(nil)

// BoardRepository stores boards.
type BoardRepository interface {
	Create(ctx context.Context, b *board.Board) error
	FindByProject(ctx context.Context, projectID id.ID) ([]*board.Board, error)
	Update(ctx context.Context, b *board.Board) error
	Delete(ctx context.Context, boardID id.ID) error
}

// BoardResolver resolves raw board and project ids.
type BoardResolver interface {
	ResolveBoard(ctx context.Context, raw string) (*board.Board, error)
	ResolveProject(ctx context.Context, raw string) (*project.Project, error)
}

// BoardService реализует httphandler.BoardService
type BoardService struct {
	boards   BoardRepository
	resolver BoardResolver
	logger   *slog.Logger
}

// NewBoardService создаёт новый BoardService.
func NewBoardService(boards BoardRepository, resolver BoardResolver, logger *slog.Logger) *BoardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardService{
		boards:   boards,
		resolver: resolver,
		logger:   logger,
	}
}

// CreateBoard создаёт доску в существующем проекте.
func (s *BoardService) CreateBoard(ctx context.Context, projectID, name, boardType string) (*board.Board, error) {
	p, err := s.resolver.ResolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	t, err := board.ParseType(boardType)
	if err != nil {
		return nil, ErrInvalidBoardType
	}

	b, err := board.NewBoard(p.ID, name, t)
	if err != nil {
		return nil, mapBoardError(err)
	}

	if createErr := s.boards.Create(ctx, b); createErr != nil {
		return nil, fmt.Errorf("failed to create board: %w", createErr)
	}

	s.logger.InfoContext(ctx, "board created",
		slog.String("board_id", b.ID.String()),
		slog.String("project_id", p.ID.String()),
	)
	return b, nil
}

// ListProjectBoards возвращает доски проекта.
func (s *BoardService) ListProjectBoards(ctx context.Context, projectID string) ([]*board.Board, error) {
	p, err := s.resolver.ResolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	boards, err := s.boards.FindByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// GetBoard возвращает доску по ID.
func (s *BoardService) GetBoard(ctx context.Context, boardID string) (*board.Board, error) {
	return s.resolver.ResolveBoard(ctx, boardID)
}

// UpdateBoard меняет имя или тип доски.
func (s *BoardService) UpdateBoard(
	ctx context.Context,
	boardID string,
	req httphandler.UpdateBoardRequest,
) (*board.Board, error) {
	b, err := s.resolver.ResolveBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if renameErr := b.Rename(*req.Name); renameErr != nil {
			return nil, ErrInvalidBoard
		}
	}
	if req.Type != nil {
		if typeErr := b.ChangeType(board.Type(*req.Type)); typeErr != nil {
			return nil, ErrInvalidBoardType
		}
	}

	if updateErr := s.boards.Update(ctx, b); updateErr != nil {
		return nil, fmt.Errorf("failed to update board: %w", updateErr)
	}
	return b, nil
}

// DeleteBoard удаляет доску.
func (s *BoardService) DeleteBoard(ctx context.Context, boardID string) error {
	b, err := s.resolver.ResolveBoard(ctx, boardID)
	if err != nil {
		return err
	}

	if deleteErr := s.boards.Delete(ctx, b.ID); deleteErr != nil {
		return fmt.Errorf("failed to delete board: %w", deleteErr)
	}
	return nil
}

func mapBoardError(err error) error {
	if errors.Is(err, errs.ErrInvalidEnum) {
		return ErrInvalidBoardType
	}
	return ErrInvalidBoard
}
