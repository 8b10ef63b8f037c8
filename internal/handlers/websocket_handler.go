package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocketHandler upgrades authenticated requests into push sessions
type WebSocketHandler struct {
	ctx      context.Context
	channel  *realtime.Channel
	verifier middleware.TokenVerifier
	upgrader websocket.Upgrader
}

// NewWebSocketHandler serves sessions until ctx is cancelled. Browser origins
// are checked against allowedOrigins; "*" allows any.
func NewWebSocketHandler(ctx context.Context, channel *realtime.Channel, verifier middleware.TokenVerifier, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		ctx:      ctx,
		channel:  channel,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (h *WebSocketHandler) RegisterWebSocketRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket takes the token from ?token= (browsers cannot set headers on
// a websocket handshake) or from the Authorization header
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var err error
		if token, err = middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token is required")
		}
	}

	userID, err := h.verifier.Verify(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already wrote the HTTP error
		c.Logger().Warnf("websocket upgrade failed: %v", err)
		return nil
	}

	h.channel.Serve(h.ctx, conn, userID)
	return nil
}
