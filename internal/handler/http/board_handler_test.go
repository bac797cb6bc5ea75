package httphandler_test

import (
	stdhttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/application/reference"
	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
	"github.com/lllypuk/taskboard/internal/service"
	"github.com/lllypuk/taskboard/tests/mocks"
)

func newBoardHandler(t *testing.T) (*httphandler.BoardHandler, *project.Project) {
	t.Helper()

	projects := mocks.NewMockProjectRepository()
	boards := mocks.NewMockBoardRepository()
	resolver := reference.NewResolver(mocks.NewMockUserRepository(), boards, projects)

	p, err := project.NewProject("Platform", "PLAT", "", id.New())
	require.NoError(t, err)
	projects.AddProject(p)

	return httphandler.NewBoardHandler(service.NewBoardService(boards, resolver, nil)), p
}

func TestBoardHandler_CRUD(t *testing.T) {
	h, p := newBoardHandler(t)
	user := id.New()

	c, rec := newContext(stdhttp.MethodPost, "/api/v1/boards",
		`{"projectId":"`+p.ID.String()+`","name":"Main"}`, user)
	require.NoError(t, h.Create(c))
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	created := decodeData[board.Board](t, rec)
	assert.Equal(t, board.TypeKanban, created.Type)
	boardID := created.ID.String()

	c, rec = newContext(stdhttp.MethodGet, "/api/v1/projects/"+p.ID.String()+"/boards", "", user,
		"projectId", p.ID.String())
	require.NoError(t, h.ListByProject(c))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]board.Board](t, rec), 1)

	c, rec = newContext(stdhttp.MethodPatch, "/api/v1/boards/"+boardID, `{"type":"scrum"}`, user,
		"boardId", boardID)
	require.NoError(t, h.Update(c))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, board.TypeScrum, decodeData[board.Board](t, rec).Type)

	c, rec = newContext(stdhttp.MethodGet, "/api/v1/boards/"+boardID, "", user, "boardId", boardID)
	require.NoError(t, h.Get(c))
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	c, rec = newContext(stdhttp.MethodDelete, "/api/v1/boards/"+boardID, "", user, "boardId", boardID)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, stdhttp.StatusNoContent, rec.Code)

	c, rec = newContext(stdhttp.MethodGet, "/api/v1/boards/"+boardID, "", user, "boardId", boardID)
	require.NoError(t, h.Get(c))
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "BOARD_NOT_FOUND", errorCodeOf(t, rec))
}

func TestBoardHandler_Errors(t *testing.T) {
	h, p := newBoardHandler(t)

	c, rec := newContext(stdhttp.MethodPost, "/api/v1/boards",
		`{"projectId":"`+p.ID.String()+`","name":"Main","type":"gantt"}`, id.New())
	require.NoError(t, h.Create(c))
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_BOARD_TYPE", errorCodeOf(t, rec))

	c, rec = newContext(stdhttp.MethodPost, "/api/v1/boards",
		`{"projectId":"`+id.New().String()+`","name":"Main"}`, id.New())
	require.NoError(t, h.Create(c))
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", errorCodeOf(t, rec))
}
