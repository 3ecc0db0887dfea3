package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openfeedhq/feedengine/internal/feed"
	"github.com/openfeedhq/feedengine/internal/models"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feedService *feed.Service
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedService *feed.Service) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(public, protected *echo.Group) {
	protected.GET("/feed", h.GetFeed)
	protected.GET("/feed/following", h.GetFollowingFeed)
	public.GET("/feed/public", h.GetPublicFeed)
	protected.GET("/feed/private", h.GetPrivateFeed)
	public.GET("/entities/:type/:id/activity", h.GetEntityActivity)
}

// GetFeed returns the current user's personalized feed from the
// materialized stream
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	limit := getLimit(c, 10, 50)

	actions, err := h.feedService.Personalized(currentUserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"actions": h.feedService.RenderAll(actions)},
	})
}

// GetFollowingFeed computes the feed from the follow graph and action log
// directly, bypassing the materialized stream
func (h *FeedHandler) GetFollowingFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	limit := getLimit(c, 10, 50)

	actions, err := h.feedService.Following(currentUserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"actions": h.feedService.RenderAll(actions)},
	})
}

// GetPublicFeed returns the most recent public actions globally
func (h *FeedHandler) GetPublicFeed(c echo.Context) error {
	limit := getLimit(c, 10, 50)
	actions, err := h.feedService.Public(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"actions": h.feedService.RenderAll(actions)},
	})
}

// GetPrivateFeed returns the most recent private actions globally
func (h *FeedHandler) GetPrivateFeed(c echo.Context) error {
	limit := getLimit(c, 10, 50)
	actions, err := h.feedService.Private(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"actions": h.feedService.RenderAll(actions)},
	})
}

// GetEntityActivity returns actions where the entity played the requested
// role (actor by default)
func (h *FeedHandler) GetEntityActivity(c echo.Context) error {
	entity := models.EntityRef{Type: c.Param("type"), ID: c.Param("id")}
	role := c.QueryParam("role")
	if role == "" {
		role = feed.RoleActor
	}
	limit := getLimit(c, 10, 50)

	actions, err := h.feedService.EntityActivity(entity, role, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"actions": h.feedService.RenderAll(actions)},
	})
}
