package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

const defaultReconnectDelay = 2 * time.Second

// Page is one page of the pull API
type Page struct {
	Items       []models.NotificationView `json:"items"`
	CurrentPage int                       `json:"currentPage"`
	TotalPages  int                       `json:"totalPages"`
	TotalCount  int64                     `json:"totalCount"`
	UnreadCount int64                     `json:"unreadCount"`
}

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// Client talks to one server as one user
type Client struct {
	http           *resty.Client
	baseURL        string
	token          string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	log            *slog.Logger
}

type Option func(*Client)

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
		c.dialer.HandshakeTimeout = d
	}
}

// New creates a client for baseURL (http or https) authenticating with token
func New(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(token).
			SetHeader("Accept", "application/json"),
		baseURL:        baseURL,
		token:          token,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		reconnectDelay: defaultReconnectDelay,
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func do[T any](req *resty.Request, method, path string) (T, error) {
	var out envelope[T]
	apiErr := &APIError{}
	resp, err := req.SetResult(&out).SetError(apiErr).Execute(method, path)
	if err != nil {
		return out.Data, err
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
		return out.Data, apiErr
	}
	return out.Data, nil
}

// List pulls one page, newest first
func (c *Client) List(ctx context.Context, page, limit int) (Page, error) {
	req := c.http.R().SetContext(ctx).SetQueryParams(map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	})
	return do[Page](req, resty.MethodGet, "/api/v1/notifications")
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	data, err := do[struct {
		UnreadCount int64 `json:"unreadCount"`
	}](c.http.R().SetContext(ctx), resty.MethodGet, "/api/v1/notifications/unread-count")
	return data.UnreadCount, err
}

func (c *Client) MarkRead(ctx context.Context, id uint) error {
	_, err := do[json.RawMessage](c.http.R().SetContext(ctx), resty.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", id))
	return err
}

// MarkAllRead returns how many notifications changed
func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	data, err := do[struct {
		Updated int64 `json:"updated"`
	}](c.http.R().SetContext(ctx), resty.MethodPut, "/api/v1/notifications/read-all")
	return data.Updated, err
}

// Sync pulls the first page into inbox
func (c *Client) Sync(ctx context.Context, inbox *Inbox, limit int) error {
	page, err := c.List(ctx, 1, limit)
	if err != nil {
		return err
	}
	inbox.Load(page.Items, page.UnreadCount)
	return nil
}

// Stream keeps a push session open until ctx is done, feeding inbox. After each
// (re)connect it re-pulls the first page, so pushes missed while offline
// still reach the inbox. onPush, if set, sees every new notification.
func (c *Client) Stream(ctx context.Context, inbox *Inbox, onPush func(models.NotificationView)) error {
	for {
		err := c.streamOnce(ctx, inbox, onPush)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("push stream interrupted, reconnecting", "error", err, "delay", c.reconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}

func (c *Client) streamOnce(ctx context.Context, inbox *Inbox, onPush func(models.NotificationView)) error {
	wsURL, err := c.streamURL()
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(realtime.Frame{Type: realtime.FrameJoin}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	joined := false
	for {
		var frame realtime.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}

		switch frame.Type {
		case realtime.FrameJoined:
			if joined {
				continue
			}
			joined = true
			// Bound sessions now get every push; the pull covers anything before
			if err := c.Sync(ctx, inbox, 0); err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			c.log.Info("push stream joined")

		case realtime.FrameNotification:
			var view models.NotificationView
			if err := json.Unmarshal(frame.Data, &view); err != nil {
				c.log.Warn("malformed notification frame", "error", err)
				continue
			}
			if inbox.Receive(view) && onPush != nil {
				onPush(view)
			}

		case realtime.FrameError:
			var data realtime.ErrorData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				c.log.Warn("malformed error frame", "error", err)
			}
			if !joined {
				return errors.New("join rejected: " + data.Message)
			}
			c.log.Warn("server error frame", "message", data.Message)
		}
	}
}
