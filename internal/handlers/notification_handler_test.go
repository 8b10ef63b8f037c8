package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) seed(t *testing.T, recipient, sender models.User, kind models.NotificationKind, at time.Time) models.Notification {
	t.Helper()
	n := models.Notification{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Kind:        kind,
		Message:     kind.Render(sender.Username),
		CreatedAt:   at,
	}
	require.NoError(t, repositories.NewPostgresNotificationRepository(env.db).Record(context.Background(), &n))
	return n
}

func TestGetNotifications(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		env.seed(t, env.bob, env.alice, models.KindLike, base.Add(time.Duration(i)*time.Minute))
	}
	env.seed(t, env.alice, env.bob, models.KindFollow, base)

	rec := env.do(t, env.bob, http.MethodGet, "/api/v1/notifications?page=2&limit=2", "")
	requireStatus(t, rec, http.StatusOK)
	list := envelope[NotificationList](t, rec)

	req.Equal(2, list.CurrentPage)
	req.Equal(3, list.TotalPages)
	req.Equal(int64(5), list.TotalCount)
	req.Equal(int64(5), list.UnreadCount)
	req.Len(list.Items, 2)
	req.True(list.Items[0].CreatedAt.After(list.Items[1].CreatedAt))
	for _, item := range list.Items {
		req.Equal(env.bob.ID, item.RecipientID)
		req.Equal("alice", item.Sender.Username)
		req.Equal("alice liked your post", item.Message)
	}
}

func TestGetNotifications_Limit_Defaults_And_Cap(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	rec := env.do(t, env.bob, http.MethodGet, "/api/v1/notifications", "")
	requireStatus(t, rec, http.StatusOK)
	list := envelope[NotificationList](t, rec)
	req.Equal(1, list.CurrentPage)
	req.Empty(list.Items)
	req.Zero(list.TotalPages)

	for i := 0; i < maxNotificationLimit+5; i++ {
		env.seed(t, env.bob, env.alice, models.KindFollow, time.Time{})
	}
	rec = env.do(t, env.bob, http.MethodGet, "/api/v1/notifications?limit=500", "")
	requireStatus(t, rec, http.StatusOK)
	req.Len(envelope[NotificationList](t, rec).Items, maxNotificationLimit)

	rec = env.do(t, env.bob, http.MethodGet, "/api/v1/notifications", "")
	requireStatus(t, rec, http.StatusOK)
	req.Len(envelope[NotificationList](t, rec).Items, defaultNotificationLimit)
}

func TestGetNotifications_Attach_Post_Summary(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	postID := env.createPost(t, env.bob)
	gone := "6650f1f2a1b2c3d4e5f60708"
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	like := env.seed(t, env.bob, env.alice, models.KindLike, base)
	req.NoError(env.db.Model(&like).Update("post_id", postID).Error)
	orphan := env.seed(t, env.bob, env.alice, models.KindComment, base.Add(time.Minute))
	req.NoError(env.db.Model(&orphan).Update("post_id", gone).Error)
	env.seed(t, env.bob, env.alice, models.KindFollow, base.Add(2*time.Minute))

	rec := env.do(t, env.bob, http.MethodGet, "/api/v1/notifications", "")
	requireStatus(t, rec, http.StatusOK)
	items := envelope[NotificationList](t, rec).Items
	req.Len(items, 3)

	// Newest first: follow, orphaned comment, like
	req.Nil(items[0].Post)
	req.Nil(items[0].PostID)
	req.Equal(gone, *items[1].PostID)
	req.Nil(items[1].Post, "a deleted post keeps only its id")
	req.NotNil(items[2].Post)
	req.Equal(postID, items[2].Post.ID)
	req.Equal("hello", items[2].Post.Content)
}

func TestMarkAsRead(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	n := env.seed(t, env.bob, env.alice, models.KindLike, time.Time{})
	path := fmt.Sprintf("/api/v1/notifications/%d/read", n.ID)

	requireStatus(t, env.do(t, env.bob, http.MethodPut, "/api/v1/notifications/999/read", ""), http.StatusNotFound)
	requireStatus(t, env.do(t, env.bob, http.MethodPut, "/api/v1/notifications/abc/read", ""), http.StatusBadRequest)
	requireStatus(t, env.do(t, env.alice, http.MethodPut, path, ""), http.StatusForbidden)

	requireStatus(t, env.do(t, env.bob, http.MethodPut, path, ""), http.StatusOK)
	requireStatus(t, env.do(t, env.bob, http.MethodPut, path, ""), http.StatusOK)

	rec := env.do(t, env.bob, http.MethodGet, "/api/v1/notifications/unread-count", "")
	requireStatus(t, rec, http.StatusOK)
	req.Equal(float64(0), envelope[map[string]any](t, rec)["unreadCount"])
}

func TestMarkAllAsRead(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.seed(t, env.bob, env.alice, models.KindComment, time.Time{})
	}
	env.seed(t, env.alice, env.bob, models.KindComment, time.Time{})

	rec := env.do(t, env.bob, http.MethodPut, "/api/v1/notifications/read-all", "")
	requireStatus(t, rec, http.StatusOK)
	req.Equal(float64(3), envelope[map[string]any](t, rec)["updated"])

	rec = env.do(t, env.bob, http.MethodPut, "/api/v1/notifications/read-all", "")
	requireStatus(t, rec, http.StatusOK)
	req.Equal(float64(0), envelope[map[string]any](t, rec)["updated"])

	// Alice's notification is untouched
	rec = env.do(t, env.alice, http.MethodGet, "/api/v1/notifications/unread-count", "")
	req.Equal(float64(1), envelope[map[string]any](t, rec)["unreadCount"])
}

func TestGetGroupedNotifications(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	env.seed(t, env.bob, env.alice, models.KindLike, now.Add(-time.Hour))
	env.seed(t, env.bob, env.alice, models.KindLike, now.AddDate(0, 0, -1))
	env.seed(t, env.bob, env.alice, models.KindLike, now.AddDate(0, 0, -4))
	env.seed(t, env.bob, env.alice, models.KindLike, now.AddDate(0, -2, 0))

	// Pin the clock through the handler directly
	h := NewNotificationHandler(repositories.NewPostgresNotificationRepository(env.db), repositories.NewPostgresUserRepository(env.db), nil)
	h.now = func() time.Time { return now }
	api := env.e.Group("/pinned")
	api.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.UserIDKey, env.bob.ID)
			return next(c)
		}
	})
	api.GET("/grouped", h.GetGroupedNotifications)

	rec := env.do(t, env.bob, http.MethodGet, "/pinned/grouped", "")
	requireStatus(t, rec, http.StatusOK)
	grouped := envelope[GroupedNotificationList](t, rec)
	req.Len(grouped.Today, 1)
	req.Len(grouped.Yesterday, 1)
	req.Len(grouped.ThisWeek, 1)
	req.Len(grouped.Older, 1)
	req.Equal(int64(4), grouped.UnreadCount)
	req.Equal("alice", grouped.Today[0].Sender.Username)
}

func TestNotifications_Require_Auth(t *testing.T) {
	env := newTestEnv(t)
	requireStatus(t, env.do(t, models.User{}, http.MethodGet, "/api/v1/notifications", ""), http.StatusUnauthorized)
	requireStatus(t, env.do(t, models.User{}, http.MethodPut, "/api/v1/notifications/read-all", ""), http.StatusUnauthorized)
}
