package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/anonto42/socialpulse/backend/internal/services"
	"github.com/anonto42/socialpulse/backend/internal/testutil"
	"github.com/anonto42/socialpulse/backend/internal/testutil/fakes"
	"github.com/anonto42/socialpulse/backend/internal/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher captures events instead of delivering them
type recordingPublisher struct {
	mu     sync.Mutex
	events []services.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event services.Event) *models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return &models.Notification{RecipientID: event.RecipientID, SenderID: event.SenderID, Kind: event.Kind}
}

func (p *recordingPublisher) Events() []services.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]services.Event(nil), p.events...)
}

type testEnv struct {
	e         *echo.Echo
	db        *gorm.DB
	posts     *fakes.PostStore
	publisher *recordingPublisher
	jwt       *middleware.JWTVerifier
	alice     models.User
	bob       models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	env := &testEnv{
		e:         echo.New(),
		db:        db,
		posts:     fakes.NewPostStore(),
		publisher: &recordingPublisher{},
		jwt:       middleware.NewJWTVerifier("handler-test"),
		alice:     testutil.CreateUser(t, db, "alice"),
		bob:       testutil.CreateUser(t, db, "bob"),
	}
	env.e.Validator = validators.NewValidator()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := repositories.NewPostgresUserRepository(db)
	api := env.e.Group("/api/v1")
	api.Use(middleware.Auth(env.jwt))
	NewPostHandler(env.posts).RegisterPostRoutes(api)
	interactions := repositories.NewPostgresInteractionRepository(db)
	NewFollowHandler(interactions, userRepo, env.publisher).RegisterFollowRoutes(api)
	NewLikeHandler(interactions, env.posts, env.publisher, log).RegisterLikeRoutes(api)
	NewCommentHandler(interactions, env.posts, env.publisher, log).RegisterCommentRoutes(api)
	NewNotificationHandler(repositories.NewPostgresNotificationRepository(db), userRepo, env.posts).RegisterNotificationRoutes(api)
	return env
}

func (env *testEnv) do(t *testing.T, as models.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if body != "" {
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if as.ID != 0 {
		token, err := env.jwt.GenerateToken(as, time.Hour)
		require.NoError(t, err)
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, r)
	return rec
}

func (env *testEnv) createPost(t *testing.T, author models.User) string {
	t.Helper()
	post := &models.Post{AuthorID: author.ID, Content: "hello"}
	require.NoError(t, env.posts.CreatePost(context.Background(), post))
	return post.ID.Hex()
}

// envelope decodes {"success":..., "data":...} into data
func envelope[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.True(t, body.Success)
	return body.Data
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
