package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openfeedhq/feedengine/internal/models"
	"github.com/openfeedhq/feedengine/internal/repositories"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository) *FollowHandler {
	return &FollowHandler{followRepository: followRepo}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(public, protected *echo.Group) {
	protected.POST("/follows", h.FollowEntity)
	protected.DELETE("/follows", h.UnfollowEntity)
	protected.GET("/follows", h.GetFollowed)
	public.GET("/follows/check", h.CheckFollowing)
}

// FollowEntity follows any entity (a user, or anything else)
func (h *FollowHandler) FollowEntity(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateFollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Matches only actor actions unless the caller asks for full-object
	// matching explicitly.
	actorOnly := true
	if req.ActorOnly != nil {
		actorOnly = *req.ActorOnly
	}

	follow := &models.Follow{
		UserID:     currentUserID,
		EntityType: req.Entity.Type,
		EntityID:   req.Entity.ID,
		ActorOnly:  actorOnly,
	}

	if err := h.followRepository.CreateFollow(follow); err != nil {
		if errors.Is(err, repositories.ErrAlreadyFollowing) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this entity")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowEntity removes a follow edge
func (h *FollowHandler) UnfollowEntity(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	entity := models.EntityRef{Type: c.QueryParam("type"), ID: c.QueryParam("id")}
	if entity.Type == "" || entity.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing entity type or id")
	}

	if err := h.followRepository.DeleteFollow(currentUserID, entity); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

// GetFollowed lists what the current user follows, optionally filtered by
// entity type
func (h *FollowHandler) GetFollowed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var types []string
	if t := c.QueryParams()["type"]; len(t) > 0 {
		types = t
	}

	follows, err := h.followRepository.FollowedBy(currentUserID, types...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"follows": follows}})
}

// CheckFollowing reports whether the current user follows the entity.
// Anonymous users always get false.
func (h *FollowHandler) CheckFollowing(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	entity := models.EntityRef{Type: c.QueryParam("type"), ID: c.QueryParam("id")}
	if entity.Type == "" || entity.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing entity type or id")
	}

	following, err := h.followRepository.IsFollowing(currentUserID, entity)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}
