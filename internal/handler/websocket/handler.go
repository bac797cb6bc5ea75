// Package websocket serves the board feed upgrade endpoint.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	ws "github.com/lllypuk/taskboard/internal/infrastructure/websocket"
	"github.com/lllypuk/taskboard/internal/middleware"
)

const defaultBufferSize = 1024

// TokenValidator checks a bearer token. Browsers cannot set headers on the
// upgrade request, so the feed accepts ?token= as well.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*middleware.TokenClaims, error)
}

// BoardResolver looks up the board a feed is opened for.
type BoardResolver interface {
	ResolveBoard(ctx context.Context, raw string) (*board.Board, error)
}

// HandlerConfig holds the upgrade and per-connection settings.
type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin accepts every origin when nil.
	CheckOrigin func(r *http.Request) bool

	Logger       *slog.Logger
	ClientConfig ws.ClientConfig
}

// DefaultHandlerConfig returns the defaults used by NewHandler.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		ReadBufferSize:  defaultBufferSize,
		WriteBufferSize: defaultBufferSize,
		Logger:          slog.Default(),
		ClientConfig:    ws.DefaultClientConfig(),
	}
}

// Handler upgrades board feed requests and hands the connection to the hub.
type Handler struct {
	hub       *ws.Hub
	boards    BoardResolver
	validator TokenValidator
	config    HandlerConfig
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// WithTokenValidator enables token authentication on the upgrade request.
func WithTokenValidator(validator TokenValidator) HandlerOption {
	return func(h *Handler) { h.validator = validator }
}

// WithHandlerConfig replaces DefaultHandlerConfig.
func WithHandlerConfig(config HandlerConfig) HandlerOption {
	return func(h *Handler) {
		h.config = config
		if config.Logger != nil {
			h.logger = config.Logger
		}
	}
}

// NewHandler creates a board feed handler.
func NewHandler(hub *ws.Hub, boards BoardResolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:    hub,
		boards: boards,
		config: DefaultHandlerConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	checkOrigin := h.config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  h.config.ReadBufferSize,
		WriteBufferSize: h.config.WriteBufferSize,
		CheckOrigin:     checkOrigin,
	}
	return h
}

// RegisterRoutes mounts the feed on the public group. The upgrade request
// authenticates itself.
func (h *Handler) RegisterRoutes(r *httpserver.Router) {
	r.Public().GET("/boards/:boardId/ws", h.HandleBoardFeed)
}

// HandleBoardFeed handles GET /api/v1/boards/:boardId/ws.
func (h *Handler) HandleBoardFeed(c echo.Context) error {
	ctx := c.Request().Context()

	userID := h.authenticate(c)
	if userID.IsZero() {
		h.logger.WarnContext(ctx, "websocket connection rejected",
			slog.String("remote_ip", c.RealIP()),
		)
		return httpserver.RespondErrorWithCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}

	b, err := h.boards.ResolveBoard(ctx, c.Param("boardId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the response
		h.logger.ErrorContext(ctx, "websocket upgrade failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}

	client := ws.NewClient(h.hub, conn, userID, b.ID,
		ws.WithClientConfig(h.config.ClientConfig),
		ws.WithClientLogger(h.logger),
	)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	h.logger.InfoContext(ctx, "websocket connection established",
		slog.String("user_id", userID.String()),
		slog.String("board_id", b.ID.String()),
	)
	return nil
}

// authenticate prefers the user set by the auth middleware and falls back to
// validating the request token itself.
func (h *Handler) authenticate(c echo.Context) id.ID {
	if userID := middleware.GetUserID(c); !userID.IsZero() {
		return userID
	}

	token := requestToken(c.Request())
	if token == "" || h.validator == nil {
		return ""
	}

	claims, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		h.logger.Debug("websocket token rejected", slog.String("error", err.Error()))
		return ""
	}
	return claims.UserID
}

func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(r.Header.Get(echo.HeaderAuthorization), "Bearer "); ok {
		return token
	}
	return ""
}
