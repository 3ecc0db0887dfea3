package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/openfeedhq/feedengine/internal/feed"
	"github.com/openfeedhq/feedengine/internal/models"
	"github.com/openfeedhq/feedengine/internal/repositories"
	"github.com/openfeedhq/feedengine/internal/tasks"
)

// ActionHandler handles the trigger interface: recording actions and
// exposing single actions to rendering collaborators.
type ActionHandler struct {
	actionRepository repositories.ActionRepository
	feedService      *feed.Service
	scheduler        tasks.Scheduler
}

// NewActionHandler creates a new ActionHandler
func NewActionHandler(actionRepo repositories.ActionRepository, feedService *feed.Service, scheduler tasks.Scheduler) *ActionHandler {
	return &ActionHandler{
		actionRepository: actionRepo,
		feedService:      feedService,
		scheduler:        scheduler,
	}
}

// RegisterActionRoutes registers action routes
func (h *ActionHandler) RegisterActionRoutes(public, protected *echo.Group) {
	protected.POST("/actions", h.CreateAction)
	public.GET("/actions/:id", h.GetAction)
}

// CreateAction records a new action and schedules fan-out. Fan-out is
// scheduled only after the write returns, never before.
func (h *ActionHandler) CreateAction(c echo.Context) error {
	var req models.CreateActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	action := &models.Action{
		Handler:  req.Handler,
		Actor:    req.Actor.Ref(),
		Public:   true,
		IsGlobal: req.IsGlobal,
	}
	if req.Public != nil {
		action.Public = *req.Public
	}
	if req.ActionObject != nil {
		action.ActionObject = req.ActionObject.Ref()
	}
	if req.Target != nil {
		action.Target = req.Target.Ref()
	}

	if err := h.actionRepository.CreateAction(action); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Private actions never fan out.
	if action.Public {
		h.scheduler.Schedule(action.ID)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": h.feedService.Render(*action)})
}

// GetAction returns one action with its resolved verb
func (h *ActionHandler) GetAction(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid action ID")
	}

	action, err := h.actionRepository.GetActionByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Action not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.feedService.Render(*action)})
}
