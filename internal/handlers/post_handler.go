package handlers

import (
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler creates and reads posts, the targets of like and comment notifications
type PostHandler struct {
	postRepository repositories.PostRepository
}

func NewPostHandler(postRepo repositories.PostRepository) *PostHandler {
	return &PostHandler{postRepository: postRepo}
}

func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
}

// CreatePost creates a new post owned by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post := &models.Post{
		AuthorID:  currentUserID,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}
	return success(c, http.StatusOK, post)
}
