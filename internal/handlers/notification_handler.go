package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

// SenderLookup loads sender profiles for a batch of notifications
type SenderLookup interface {
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
}

// PostLookup loads subject post excerpts for a batch of notifications
type PostLookup interface {
	Summaries(ctx context.Context, ids []string) (map[string]models.PostSummary, error)
}

// NotificationHandler serves the pull side of notifications
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	senders                SenderLookup
	posts                  PostLookup
	now                    func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler. posts may be nil,
// in which case views carry only post_id.
func NewNotificationHandler(notifRepo repositories.NotificationRepository, senders SenderLookup, posts PostLookup) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		senders:                senders,
		posts:                  posts,
		now:                    time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
}

// NotificationList is the data of GET /notifications
type NotificationList struct {
	Items       []models.NotificationView `json:"items"`
	CurrentPage int                       `json:"currentPage"`
	TotalPages  int                       `json:"totalPages"`
	TotalCount  int64                     `json:"totalCount"`
	UnreadCount int64                     `json:"unreadCount"`
}

// GroupedNotificationList is the data of GET /notifications/grouped
type GroupedNotificationList struct {
	Today       []models.NotificationView `json:"today"`
	Yesterday   []models.NotificationView `json:"yesterday"`
	ThisWeek    []models.NotificationView `json:"thisWeek"`
	Older       []models.NotificationView `json:"older"`
	UnreadCount int64                     `json:"unreadCount"`
}

// toViews resolves senders and subject posts with one query each. Unknown
// senders keep only their id; posts that are gone keep only post_id.
func (h *NotificationHandler) toViews(c echo.Context, groups ...[]models.Notification) ([][]models.NotificationView, error) {
	var ids []uint
	var postIDs []string
	seen := make(map[uint]bool)
	seenPost := make(map[string]bool)
	for _, group := range groups {
		for _, n := range group {
			if !seen[n.SenderID] {
				seen[n.SenderID] = true
				ids = append(ids, n.SenderID)
			}
			if n.PostID != nil && !seenPost[*n.PostID] {
				seenPost[*n.PostID] = true
				postIDs = append(postIDs, *n.PostID)
			}
		}
	}
	ctx := c.Request().Context()
	users, err := h.senders.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	posts := h.postSummaries(c, postIDs)

	out := make([][]models.NotificationView, len(groups))
	for i, group := range groups {
		views := make([]models.NotificationView, len(group))
		for j, n := range group {
			views[j] = n.ToView(users[n.SenderID].ToCompact())
			if n.PostID != nil {
				if post, ok := posts[*n.PostID]; ok {
					views[j].Post = &post
				}
			}
		}
		out[i] = views
	}
	return out, nil
}

// postSummaries is best effort: posts live in another store and an outage
// there must not hide notifications
func (h *NotificationHandler) postSummaries(c echo.Context, ids []string) map[string]models.PostSummary {
	if h.posts == nil || len(ids) == 0 {
		return nil
	}
	posts, err := h.posts.Summaries(c.Request().Context(), ids)
	if err != nil {
		c.Logger().Warnf("post excerpts unavailable: %v", err)
		return nil
	}
	return posts
}

// GetNotifications returns one page of the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	result, err := h.notificationRepository.ListByRecipient(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views, err := h.toViews(c, result.Items)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, NotificationList{
		Items:       views[0],
		CurrentPage: result.Page,
		TotalPages:  result.TotalPages(),
		TotalCount:  result.TotalCount,
		UnreadCount: result.UnreadCount,
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	grouped, err := h.notificationRepository.ListGrouped(ctx, currentUserID, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	unreadCount, err := h.notificationRepository.CountUnread(ctx, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views, err := h.toViews(c, grouped.Today, grouped.Yesterday, grouped.ThisWeek, grouped.Older)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, GroupedNotificationList{
		Today:       views[0],
		Yesterday:   views[1],
		ThisWeek:    views[2],
		Older:       views[3],
		UnreadCount: unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.CountUnread(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"unreadCount": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	err = h.notificationRepository.MarkRead(c.Request().Context(), uint(notifID), currentUserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	case errors.Is(err, repositories.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"id": uint(notifID), "read": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	updated, err := h.notificationRepository.MarkAllRead(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"updated": updated})
}
