package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/anonto42/socialpulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	interactions   repositories.InteractionRepository
	postRepository repositories.PostRepository // To update comment counts in posts
	publisher      services.EventPublisher
	log            *slog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(interactions repositories.InteractionRepository, postRepo repositories.PostRepository, publisher services.EventPublisher, log *slog.Logger) *CommentHandler {
	return &CommentHandler{
		interactions:   interactions,
		postRepository: postRepo,
		publisher:      publisher,
		log:            log,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
}

// CreateComment creates a new comment on a post and notifies its author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := postSummary(ctx, h.postRepository, postID)
	if err != nil {
		return err
	}

	comment, err := h.interactions.Comment(ctx, postID, currentUserID, req.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.AdjustCounters(context.WithoutCancel(ctx), postID, models.PostCounters{Comments: 1}); err != nil {
		h.log.Warn("failed to increment comments count", "post_id", postID, "error", err)
	}

	h.publisher.Publish(ctx, services.Event{
		RecipientID: post.AuthorID,
		SenderID:    currentUserID,
		Kind:        models.KindComment,
		PostID:      &postID,
		Post:        post,
	})

	return success(c, http.StatusCreated, comment)
}

// GetCommentsByPostID retrieves all comments for a specific post
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	if _, err := postSummary(ctx, h.postRepository, postID); err != nil {
		return err
	}

	comments, err := h.interactions.CommentsForPost(ctx, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, comments)
}
