package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/ports"
)

const (
	sortCreated = "createdAt"
	sortUrgency = "urgency"
)

// TaskListHandler handles task list requests. It owns the presentation of lists,
// including their derived urgency.
type TaskListHandler struct {
	service  ports.TaskListService
	location *time.Location
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskListHandler creates a new task list handler. Reminders are read in loc.
func NewTaskListHandler(service ports.TaskListService, loc *time.Location, logger *logger.Logger) *TaskListHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskListHandler{
		service:  service,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateTaskList godoc
// @Summary Create a task list
// @Tags tasklists
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskListRequest true "Task list"
// @Success 201 {object} ports.TaskListResponse
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/tasklists [post]
func (h *TaskListHandler) CreateTaskList(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	list, err := h.service.CreateTaskList(c.Request().Context(), userID, req)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusCreated, ports.TaskListResponse{
		Message:  "Task list created successfully",
		TaskList: h.view(list),
	})
}

// ListTaskLists godoc
// @Summary List the caller's task lists
// @Description Newest first. With sort=urgency, lists are ordered red, orange, green, then none.
// @Tags tasklists
// @Produce json
// @Param sort query string false "createdAt or urgency"
// @Success 200 {array} ports.TaskListView
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/tasklists [get]
func (h *TaskListHandler) ListTaskLists(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	order := c.QueryParam("sort")
	if order != "" && order != sortCreated && order != sortUrgency {
		return MapError(entities.NewValidationError("invalid sort order").
			WithField("sort", "must be createdAt or urgency"))
	}

	lists, err := h.service.ListTaskLists(c.Request().Context(), userID)
	if err != nil {
		return MapError(err)
	}

	views := make([]ports.TaskListView, 0, len(lists))
	for _, l := range lists {
		views = append(views, h.view(l))
	}

	if order == sortUrgency {
		SortByUrgency(views)
	}

	return c.JSON(http.StatusOK, views)
}

// GetTaskList godoc
// @Summary Get one task list
// @Tags tasklists
// @Produce json
// @Param id path string true "Task list ID"
// @Success 200 {object} ports.TaskListView
// @Failure 400 {object} ports.ErrorResponse
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/tasklists/{id} [get]
func (h *TaskListHandler) GetTaskList(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	id, err := parseListID(c)
	if err != nil {
		return err
	}

	list, err := h.service.GetTaskList(c.Request().Context(), id, userID)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, h.view(list))
}

// UpdateTaskList godoc
// @Summary Update a task list
// @Description Partial update. items replaces the whole item sequence; reminder null clears it.
// @Tags tasklists
// @Accept json
// @Produce json
// @Param id path string true "Task list ID"
// @Param request body ports.UpdateTaskListRequest true "Fields to change"
// @Success 200 {object} ports.TaskListResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/tasklists/{id} [put]
func (h *TaskListHandler) UpdateTaskList(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	id, err := parseListID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format")
	}

	list, err := h.service.UpdateTaskList(c.Request().Context(), id, userID, req)
	if err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, ports.TaskListResponse{
		Message:  "Task list updated successfully",
		TaskList: h.view(list),
	})
}

// DeleteTaskList godoc
// @Summary Delete a task list
// @Tags tasklists
// @Produce json
// @Param id path string true "Task list ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /api/tasklists/{id} [delete]
func (h *TaskListHandler) DeleteTaskList(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	id, err := parseListID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteTaskList(c.Request().Context(), id, userID); err != nil {
		return MapError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task list deleted successfully"})
}

func (h *TaskListHandler) view(list *entities.TaskList) ports.TaskListView {
	return ports.TaskListView{
		TaskList: list,
		Urgency:  entities.ClassifyUrgency(list.Reminder, h.now(), h.location),
	}
}

// SortByUrgency orders views most urgent first. Ties keep their incoming order.
func SortByUrgency(views []ports.TaskListView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Urgency.Rank() < views[j].Urgency.Rank()
	})
}
