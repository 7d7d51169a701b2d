package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
	"exchangedesk/internal/repository"
	"exchangedesk/internal/taskview"
	"exchangedesk/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks  repository.TaskRepositoryInterface
	access repository.AccessChecker
	clock  taskview.Clock
	logger *zap.Logger
}

func NewTaskHandler(
	tasks repository.TaskRepositoryInterface,
	access repository.AccessChecker,
	clock taskview.Clock,
	logger *zap.Logger,
) *TaskHandler {
	if clock == nil {
		clock = taskview.SystemClock
	}
	return &TaskHandler{tasks: tasks, access: access, clock: clock, logger: logger}
}

// TaskRequest is the body of task create and update requests. Updates
// replace every field, so an omitted due date or assignee clears it.
type TaskRequest struct {
	Title        string             `json:"title" binding:"required,max=500"`
	Description  string             `json:"description"`
	Status       model.TaskStatus   `json:"status" binding:"taskstatus"`
	Priority     model.TaskPriority `json:"priority" binding:"taskpriority"`
	DueDate      *time.Time         `json:"due_date"`
	AssigneeID   *uuid.UUID         `json:"assignee_id"`
	ExchangeID   *uuid.UUID         `json:"exchange_id"`
	Tags         []string           `json:"tags" binding:"max=20,dive,max=40"`
	SubtaskCount int                `json:"subtask_count" binding:"min=0"`
	SubtasksDone int                `json:"subtasks_done" binding:"min=0,ltefield=SubtaskCount"`
}

func (r TaskRequest) apply(t *model.Task) {
	t.Title = strings.TrimSpace(r.Title)
	t.Description = r.Description
	t.Status = r.Status
	t.Priority = r.Priority
	t.DueDate = r.DueDate
	t.AssigneeID = r.AssigneeID
	t.ExchangeID = r.ExchangeID
	t.Tags = r.Tags
	t.SubtaskCount = r.SubtaskCount
	t.SubtasksDone = r.SubtasksDone
}

// BulkRequest applies one action to many tasks.
type BulkRequest struct {
	IDs      []uuid.UUID        `json:"ids" binding:"required,min=1,max=200"`
	Action   string             `json:"action" binding:"required,oneof=status priority delete"`
	Status   model.TaskStatus   `json:"status" binding:"required_if=Action status,taskstatus"`
	Priority model.TaskPriority `json:"priority" binding:"taskpriority"`
}

type BulkItemResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// authorize decides whether userID may perform action on task. Creators
// and assignees may view and edit their own tasks; anything else follows
// the exchange's participant permissions.
func (h *TaskHandler) authorize(ctx context.Context, task *model.Task, userID uuid.UUID, action permission.Action) (bool, error) {
	if action == permission.View || action == permission.Edit {
		if task.CreatedBy != nil && *task.CreatedBy == userID {
			return true, nil
		}
		if task.AssigneeID != nil && *task.AssigneeID == userID {
			return true, nil
		}
	}
	if task.ExchangeID == nil {
		return task.CreatedBy != nil && *task.CreatedBy == userID, nil
	}
	return h.access.CheckAccess(ctx, *task.ExchangeID, userID, action)
}

// load fetches a task and checks access, writing the error response
// itself when either fails.
func (h *TaskHandler) load(c *gin.Context, userID uuid.UUID, action permission.Action) (*model.Task, bool) {
	taskID, ok := uuidParam(c, "id", "task")
	if !ok {
		return nil, false
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			h.logger.Error("get task", zap.Stringer("task", taskID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, false
	}

	allowed, err := h.authorize(c.Request.Context(), task, userID, action)
	if err != nil {
		h.logger.Error("check task access", zap.Stringer("task", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return nil, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to " + string(action) + " this task"})
		return nil, false
	}
	return task, true
}

// requireExchange checks access to the exchange a task is being placed in.
func (h *TaskHandler) requireExchange(c *gin.Context, exchangeID *uuid.UUID, userID uuid.UUID, action permission.Action) bool {
	if exchangeID == nil {
		return true
	}
	allowed, err := h.access.CheckAccess(c.Request.Context(), *exchangeID, userID, action)
	if err != nil {
		h.logger.Error("check exchange access", zap.Stringer("exchange", *exchangeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this exchange"})
		return false
	}
	return true
}

// visibleTasks loads the caller's tasks, scoped by the exchange_id query
// parameter, and applies the filter query parameters.
func (h *TaskHandler) visibleTasks(c *gin.Context, userID uuid.UUID, now time.Time) ([]model.Task, bool) {
	filter := repository.TaskFilter{UserID: userID}
	if s := c.Query("exchange_id"); s != "" {
		exchangeID, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exchange ID format"})
			return nil, false
		}
		if !h.requireExchange(c, &exchangeID, userID, permission.View) {
			return nil, false
		}
		filter.ExchangeID = &exchangeID
	}

	tasks, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return nil, false
	}
	return taskview.Filter(tasks, filterFromQuery(c), now), true
}

// filterFromQuery reads search, status, priority, assignee and timeframe.
// Multi-valued parameters may repeat or be comma separated; "none" selects
// tasks with the field unset.
func filterFromQuery(c *gin.Context) taskview.FilterState {
	return taskview.FilterState{
		Search:     c.Query("search"),
		Statuses:   taskview.ParseStatuses(queryList(c, "status")),
		Priorities: taskview.ParsePriorities(queryList(c, "priority")),
		Assignees:  queryList(c, "assignee"),
		Timeframe:  taskview.ParseTimeframe(c.Query("timeframe")),
	}
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// List godoc
// @Summary      List tasks
// @Description  Filters, sorts and optionally groups the caller's tasks.
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        exchange_id query string false "Exchange scope"
// @Param        search      query string false "Title, assignee name or email"
// @Param        status      query []string false "PENDING, IN_PROGRESS, COMPLETED, BLOCKED or none"
// @Param        priority    query []string false "HIGH, MEDIUM, LOW or none"
// @Param        assignee    query []string false "Assignee display name, ID or Unassigned"
// @Param        timeframe   query string false "overdue, today, this-week or this-month"
// @Param        group_by    query string false "status, priority, assignee, due_date or none"
// @Param        sort        query string false "due_date, priority, created_at or title"
// @Param        dir         query string false "asc or desc"
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	now := h.clock.Now()
	visible, ok := h.visibleTasks(c, userID, now)
	if !ok {
		return
	}

	spec := taskview.ParseSort(c.Query("sort"), c.Query("dir"), taskview.DefaultSort)
	if gb := c.Query("group_by"); gb != "" {
		by := taskview.ParseGroupBy(gb)
		groups := taskview.GroupTasks(visible, by, spec, now)
		if c.Query("empty_groups") == "true" {
			groups = taskview.WithFixedGroups(groups, by)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups, "total": len(visible)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": taskview.Sort(visible, spec)})
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	if !h.requireExchange(c, req.ExchangeID, userID, permission.Edit) {
		return
	}

	task := &model.Task{ID: uuid.New(), CreatedBy: &userID}
	req.apply(task)

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		h.logger.Error("create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": task})
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	task, ok := h.load(c, userID, permission.View)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": task})
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	task, ok := h.load(c, userID, permission.Edit)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	if !sameExchange(task.ExchangeID, req.ExchangeID) && !h.requireExchange(c, req.ExchangeID, userID, permission.Edit) {
		return
	}

	req.apply(task)
	task.UpdatedAt = h.clock.Now()
	task.Assignee = nil

	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("update task", zap.Stringer("task", task.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if saved, err := h.tasks.GetByID(c.Request.Context(), task.ID); err == nil {
		task = saved
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": task})
}

func sameExchange(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	task, ok := h.load(c, userID, permission.Edit)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("delete task", zap.Stringer("task", task.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully"})
}

// Bulk applies an action to each listed task in order. It is not atomic:
// every task is attempted and reported on separately.
func (h *TaskHandler) Bulk(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	results := make([]BulkItemResult, 0, len(req.IDs))
	var errs *multierror.Error
	for _, id := range req.IDs {
		err := h.bulkOne(ctx, id, userID, req)
		if err != nil {
			errs = multierror.Append(errs, err)
			results = append(results, BulkItemResult{ID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkItemResult{ID: id, Success: true})
	}

	failed := 0
	if errs != nil {
		failed = errs.Len()
		h.logger.Warn("bulk task action partially failed",
			zap.String("action", req.Action), zap.Int("failed", failed), zap.Error(errs))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   failed == 0,
		"results":   results,
		"succeeded": len(req.IDs) - failed,
		"failed":    failed,
	})
}

var errForbidden = errors.New("permission denied")

func (h *TaskHandler) bulkOne(ctx context.Context, id, userID uuid.UUID, req BulkRequest) error {
	task, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	allowed, err := h.authorize(ctx, task, userID, permission.Edit)
	if err != nil {
		return err
	}
	if !allowed {
		return errForbidden
	}

	switch req.Action {
	case "delete":
		return h.tasks.Delete(ctx, id)
	case "status":
		task.Status = req.Status
	case "priority":
		task.Priority = req.Priority
	}
	task.UpdatedAt = h.clock.Now()
	task.Assignee = nil
	return h.tasks.Update(ctx, task)
}

// Calendar lays the filtered tasks out on a month, week or day grid.
func (h *TaskHandler) Calendar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	mode, err := views.ParseCalendarMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid calendar mode"})
		return
	}

	now := h.clock.Now()
	anchor := now
	if s := c.Query("date"); s != "" {
		if anchor, err = time.ParseInLocation(time.DateOnly, s, now.Location()); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	visible, ok := h.visibleTasks(c, userID, now)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": views.BuildCalendar(visible, mode, anchor)})
}

// Timeline renders the filtered tasks as bars between from and to. The
// range defaults to a week back and four weeks ahead.
func (h *TaskHandler) Timeline(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	now := h.clock.Now()
	from, err := dateQuery(c, "from", now.AddDate(0, 0, -7))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := dateQuery(c, "to", now.AddDate(0, 0, 28))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected YYYY-MM-DD"})
		return
	}

	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}

	visible, ok := h.visibleTasks(c, userID, now)
	if !ok {
		return
	}

	tl, err := views.BuildTimeline(visible, from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tl})
}

func dateQuery(c *gin.Context, key string, def time.Time) (time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	return time.ParseInLocation(time.DateOnly, s, def.Location())
}
