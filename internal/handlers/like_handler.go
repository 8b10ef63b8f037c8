package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/anonto42/socialpulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	interactions   repositories.InteractionRepository
	postRepository repositories.PostRepository // To update like counts in posts
	publisher      services.EventPublisher
	log            *slog.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(interactions repositories.InteractionRepository, postRepo repositories.PostRepository, publisher services.EventPublisher, log *slog.Logger) *LikeHandler {
	return &LikeHandler{
		interactions:   interactions,
		postRepository: postRepo,
		publisher:      publisher,
		log:            log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
}

// postError maps a missing or malformed post id to 404
func postError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// postSummary resolves the post an interaction targets; its author is notified
func postSummary(ctx context.Context, posts repositories.PostRepository, postID string) (*models.PostSummary, error) {
	summary, err := posts.Summarize(ctx, postID)
	if err != nil {
		return nil, postError(err)
	}
	return &summary, nil
}

// LikePost likes a post and notifies its author
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, err := postSummary(ctx, h.postRepository, postID)
	if err != nil {
		return err
	}

	like, err := h.interactions.Like(ctx, postID, currentUserID)
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.AdjustCounters(context.WithoutCancel(ctx), postID, models.PostCounters{Likes: 1}); err != nil {
		h.log.Warn("failed to increment likes count", "post_id", postID, "error", err)
	}

	h.publisher.Publish(ctx, services.Event{
		RecipientID: post.AuthorID,
		SenderID:    currentUserID,
		Kind:        models.KindLike,
		PostID:      &postID,
		Post:        post,
	})

	return success(c, http.StatusCreated, like)
}

// UnlikePost removes the caller's like
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	if _, err := postSummary(ctx, h.postRepository, postID); err != nil {
		return err
	}

	if err := h.interactions.Unlike(ctx, postID, currentUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.AdjustCounters(context.WithoutCancel(ctx), postID, models.PostCounters{Likes: -1}); err != nil {
		h.log.Warn("failed to decrement likes count", "post_id", postID, "error", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	hasLiked, err := h.interactions.HasLiked(c.Request().Context(), postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"post_id": postID, "has_liked": hasLiked})
}
