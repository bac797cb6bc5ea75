//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/domain/id"
	mongodbinfra "github.com/lllypuk/taskboard/internal/infrastructure/mongodb"
	wsinfra "github.com/lllypuk/taskboard/internal/infrastructure/websocket"
	"github.com/lllypuk/taskboard/tests/testutil"
)

const eventPropagationWait = 5 * time.Second

type stack struct {
	t      *testing.T
	c      *Container
	server *httptest.Server
	token  string
}

func newStack(t *testing.T) *stack {
	t.Helper()

	client, db := testutil.SetupSharedTestMongoDBWithClient(t)
	redisClient, prefix := testutil.SetupTestRedisWithPrefix(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, mongodbinfra.CreateAllIndexes(ctx, db))

	cfg := testConfig()
	cfg.MongoDB.Database = db.Name()
	cfg.EventBus.ChannelPrefix = prefix + "events:"
	cfg.EventBus.DeadLetterKey = prefix + "dlq"

	c := newContainer(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c.MongoDB = client
	c.Database = db
	c.Redis = redisClient
	require.NoError(t, c.wire())

	runCtx, stop := context.WithCancel(context.Background())
	c.StartHub(runCtx)
	require.NoError(t, c.StartEventBus(runCtx))
	require.Eventually(t, func() bool { return c.Hub.IsRunning() && c.EventBus.IsRunning() },
		5*time.Second, 20*time.Millisecond)

	server := httptest.NewServer(SetupRoutes(c).Echo())
	t.Cleanup(func() {
		server.Close()
		stop()
		c.Hub.Stop()
		_ = c.EventBus.Shutdown()
	})

	return &stack{t: t, c: c, server: server}
}

func (s *stack) do(method, path string, body any) (int, json.RawMessage) {
	s.t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, s.server.URL+"/api/v1"+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&envelope))
	}
	return resp.StatusCode, envelope.Data
}

func (s *stack) mustDo(method, path string, body any, wantStatus int, out any) {
	s.t.Helper()

	status, data := s.do(method, path, body)
	require.Equal(s.t, wantStatus, status, string(data))
	if out != nil {
		require.NoError(s.t, json.Unmarshal(data, out))
	}
}

type entity struct {
	ID string `json:"id"`
}

func (s *stack) signIn() entity {
	s.t.Helper()

	var registered entity
	s.mustDo(http.MethodPost, "/auth/register", map[string]string{
		"name":     "Ann",
		"email":    "ann@example.com",
		"password": "correct-horse-battery",
	}, http.StatusCreated, &registered)

	var tokens struct {
		AccessToken string `json:"accessToken"`
	}
	s.mustDo(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ann@example.com",
		"password": "correct-horse-battery",
	}, http.StatusOK, &tokens)
	s.token = tokens.AccessToken

	return registered
}

func (s *stack) seedBoard() (project, board entity) {
	s.t.Helper()

	s.mustDo(http.MethodPost, "/projects", map[string]string{"name": "Platform", "key": "PLAT"},
		http.StatusCreated, &project)
	s.mustDo(http.MethodPost, "/boards", map[string]string{"projectId": project.ID, "name": "Sprint"},
		http.StatusCreated, &board)
	return project, board
}

type changeRecord struct {
	Field    string `json:"field"`
	UserID   string `json:"userId"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

func (s *stack) createTask(project, board entity, title string) entity {
	s.t.Helper()

	var created entity
	s.mustDo(http.MethodPost, "/tasks", map[string]string{
		"projectId": project.ID,
		"boardId":   board.ID,
		"title":     title,
	}, http.StatusCreated, &created)
	return created
}

func TestStack_UpdateTaskRecordsHistory(t *testing.T) {
	s := newStack(t)
	me := s.signIn()
	project, board := s.seedBoard()
	created := s.createTask(project, board, "Ship it")

	var updated struct {
		Status   string  `json:"status"`
		Priority string  `json:"priority"`
		Assignee *string `json:"assignee"`
	}
	s.mustDo(http.MethodPatch, "/tasks/"+created.ID, map[string]any{
		"status":   "in-progress",
		"priority": "high",
		"assignee": me.ID,
	}, http.StatusOK, &updated)
	assert.Equal(t, "in-progress", updated.Status)
	assert.Equal(t, "high", updated.Priority)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, me.ID, *updated.Assignee)

	var records []changeRecord
	s.mustDo(http.MethodGet, "/tasks/"+created.ID+"/history", nil, http.StatusOK, &records)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, me.ID, r.UserID)
	}

	// Same values again change nothing and add no history
	status, _ := s.do(http.MethodPatch, "/tasks/"+created.ID, map[string]any{"status": "in-progress"})
	assert.Equal(t, http.StatusBadRequest, status)

	s.mustDo(http.MethodGet, "/tasks/"+created.ID+"/history", nil, http.StatusOK, &records)
	assert.Len(t, records, 3)

	// Clearing the assignee is a change of its own
	updated.Assignee = nil
	s.mustDo(http.MethodPatch, "/tasks/"+created.ID, map[string]any{"assignee": nil}, http.StatusOK, &updated)
	assert.Nil(t, updated.Assignee)

	records = nil
	s.mustDo(http.MethodGet, "/tasks/"+created.ID+"/history", nil, http.StatusOK, &records)
	require.Len(t, records, 4)
	assert.Nil(t, records[3].NewValue)
}

func TestStack_DeleteTaskKeepsHistory(t *testing.T) {
	s := newStack(t)
	s.signIn()
	project, board := s.seedBoard()
	created := s.createTask(project, board, "Temporary")
	s.mustDo(http.MethodPatch, "/tasks/"+created.ID, map[string]any{"title": "Renamed"}, http.StatusOK, nil)
	s.mustDo(http.MethodDelete, "/tasks/"+created.ID, nil, http.StatusNoContent, nil)

	status, _ := s.do(http.MethodGet, "/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	count, err := s.c.Database.Collection(mongodbinfra.CollectionTaskHistory).
		CountDocuments(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStack_BoardFeedReceivesUpdates(t *testing.T) {
	s := newStack(t)
	s.signIn()
	project, board := s.seedBoard()
	created := s.createTask(project, board, "Watched")

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/api/v1/boards/" + board.ID + "/ws?token=" + s.token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool {
		return s.c.Hub.ClientsOnBoard(id.MustParse(board.ID)) == 1
	}, 2*time.Second, 20*time.Millisecond)

	s.mustDo(http.MethodPatch, "/tasks/"+created.ID, map[string]any{"status": "done"}, http.StatusOK, nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(eventPropagationWait)))
	for {
		_, raw, readErr := conn.ReadMessage()
		require.NoError(t, readErr)

		var msg wsinfra.OutboundMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Type != "task.updated" {
			continue
		}
		assert.Equal(t, board.ID, msg.BoardID)
		assert.Equal(t, created.ID, msg.TaskID)
		return
	}
}

func TestStack_RefreshTokenRotation(t *testing.T) {
	s := newStack(t)

	s.mustDo(http.MethodPost, "/auth/register", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "correct-horse-battery",
	}, http.StatusCreated, nil)

	var tokens struct {
		RefreshToken string `json:"refreshToken"`
	}
	s.mustDo(http.MethodPost, "/auth/login", map[string]string{
		"email": "bob@example.com", "password": "correct-horse-battery",
	}, http.StatusOK, &tokens)

	first := tokens.RefreshToken
	s.mustDo(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": first}, http.StatusOK, &tokens)
	assert.NotEqual(t, first, tokens.RefreshToken)

	// The rotated token is stored in Redis; the old one is gone
	status, _ := s.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": first})
	assert.Equal(t, http.StatusForbidden, status)
}
