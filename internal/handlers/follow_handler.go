package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/anonto42/socialpulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	interactions   repositories.InteractionRepository
	userRepository repositories.UserRepository
	publisher      services.EventPublisher
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(interactions repositories.InteractionRepository, userRepo repositories.UserRepository, publisher services.EventPublisher) *FollowHandler {
	return &FollowHandler{
		interactions:   interactions,
		userRepository: userRepo,
		publisher:      publisher,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

func parseTargetID(c echo.Context) (uint, error) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || targetID == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(targetID), nil
}

// FollowUser follows a user and notifies them
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseTargetID(c)
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.interactions.Follow(ctx, currentUserID, targetID); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publisher.Publish(ctx, services.Event{
		RecipientID: targetID,
		SenderID:    currentUserID,
		Kind:        models.KindFollow,
	})

	return success(c, http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseTargetID(c)
	if err != nil {
		return err
	}

	if err := h.interactions.Unfollow(c.Request().Context(), currentUserID, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"following": false})
}
