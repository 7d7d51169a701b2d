package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exchangedesk/internal/handler"
	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
	"exchangedesk/internal/repository"
	"exchangedesk/internal/taskview"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var handlerNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

func setupTaskTest(t *testing.T, userID uuid.UUID) (*gin.Engine, *MockTaskRepository, *MockParticipantRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.RegisterValidators())

	tasks := new(MockTaskRepository)
	access := new(MockParticipantRepository)
	h := handler.NewTaskHandler(tasks, access, taskview.FixedClock(handlerNow), zap.NewNop())

	r := gin.New()
	g := r.Group("/", authenticatedAs(userID))
	g.GET("/tasks", h.List)
	g.POST("/tasks", h.Create)
	g.POST("/tasks/bulk", h.Bulk)
	g.GET("/tasks/calendar", h.Calendar)
	g.GET("/tasks/timeline", h.Timeline)
	g.GET("/tasks/:id", h.GetByID)
	g.PUT("/tasks/:id", h.Update)
	g.DELETE("/tasks/:id", h.Delete)
	return r, tasks, access
}

func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func taskFixture(owner uuid.UUID) []model.Task {
	today := handlerNow.Add(2 * time.Hour)
	return []model.Task{
		{ID: uuid.New(), Title: "Order appraisal", Status: model.StatusPending, Priority: model.PriorityHigh, DueDate: &today, CreatedBy: &owner, CreatedAt: handlerNow.Add(-1 * time.Hour)},
		{ID: uuid.New(), Title: "Collect W-9", Status: model.StatusBlocked, Priority: model.PriorityLow, CreatedBy: &owner, CreatedAt: handlerNow.Add(-2 * time.Hour)},
		{ID: uuid.New(), Title: "Engage QI", Status: model.StatusCompleted, Priority: model.PriorityHigh, CreatedBy: &owner, CreatedAt: handlerNow.Add(-3 * time.Hour)},
		{ID: uuid.New(), Title: "Review title", Status: model.StatusPending, CreatedBy: &owner, CreatedAt: handlerNow.Add(-4 * time.Hour)},
	}
}

type groupedResponse struct {
	Success bool             `json:"success"`
	Groups  []taskview.Group `json:"groups"`
	Total   int              `json:"total"`
}

type listResponse struct {
	Success bool         `json:"success"`
	Data    []model.Task `json:"data"`
}

func TestTaskList_FilterAndGroup(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, tasks, _ := setupTaskTest(t, userID)
	tasks.On("List", mock.Anything, repository.TaskFilter{UserID: userID}).Return(taskFixture(userID), nil)

	// Act
	resp := serve(router, "GET", "/tasks?status=PENDING,BLOCKED&group_by=priority", nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	var body groupedResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Groups, 3)
	assert.Equal(t, "HIGH", body.Groups[0].Label)
	assert.Equal(t, "LOW", body.Groups[1].Label)
	assert.Equal(t, "No Priority", body.Groups[2].Label)
	assert.Equal(t, "Review title", body.Groups[2].Tasks[0].Title)
}

func TestTaskList_SortedWithoutGrouping(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, tasks, _ := setupTaskTest(t, userID)
	tasks.On("List", mock.Anything, mock.Anything).Return(taskFixture(userID), nil)

	// Act
	resp := serve(router, "GET", "/tasks?sort=title&dir=asc&priority=none,low", nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	var body listResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Collect W-9", body.Data[0].Title)
	assert.Equal(t, "Review title", body.Data[1].Title)
}

func TestTaskList_TimeframeToday(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, tasks, _ := setupTaskTest(t, userID)
	tasks.On("List", mock.Anything, mock.Anything).Return(taskFixture(userID), nil)

	// Act
	resp := serve(router, "GET", "/tasks?timeframe=today", nil)

	// Assert
	var body listResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Order appraisal", body.Data[0].Title)
}

func TestTaskList_ExchangeForbidden(t *testing.T) {
	// Arrange
	userID, exchangeID := uuid.New(), uuid.New()
	router, tasks, access := setupTaskTest(t, userID)
	access.On("CheckAccess", mock.Anything, exchangeID, userID, permission.View).Return(false, nil)

	// Act
	resp := serve(router, "GET", "/tasks?exchange_id="+exchangeID.String(), nil)

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
	tasks.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestTaskCreate_RejectsUnknownStatus(t *testing.T) {
	// Arrange
	router, tasks, _ := setupTaskTest(t, uuid.New())

	// Act
	resp := serve(router, "POST", "/tasks", `{"title":"Order appraisal","status":"DONE"}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskCreate_BlankTitle(t *testing.T) {
	// Arrange
	router, _, _ := setupTaskTest(t, uuid.New())

	// Act
	resp := serve(router, "POST", "/tasks", `{"title":"   "}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Title is required")
}

func TestTaskCreate_InExchange(t *testing.T) {
	// Arrange
	userID, exchangeID := uuid.New(), uuid.New()
	router, tasks, access := setupTaskTest(t, userID)
	access.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Edit).Return(true, nil)
	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.CreatedBy != nil && *task.CreatedBy == userID &&
			task.Title == "Order appraisal" &&
			task.Priority == model.PriorityHigh &&
			task.ExchangeID != nil && *task.ExchangeID == exchangeID
	})).Return(nil)

	// Act
	resp := serve(router, "POST", "/tasks", handler.TaskRequest{
		Title:      " Order appraisal ",
		Priority:   model.PriorityHigh,
		ExchangeID: &exchangeID,
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)
	tasks.AssertExpectations(t)
}

func TestTaskUpdate_ForbiddenForStranger(t *testing.T) {
	// Arrange
	userID, owner, exchangeID := uuid.New(), uuid.New(), uuid.New()
	router, tasks, access := setupTaskTest(t, userID)
	task := &model.Task{ID: uuid.New(), Title: "Order appraisal", CreatedBy: &owner, ExchangeID: &exchangeID}
	tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	access.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Edit).Return(false, nil)

	// Act
	resp := serve(router, "PUT", "/tasks/"+task.ID.String(), handler.TaskRequest{Title: "Renamed"})

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
	tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTaskGet_NotFound(t *testing.T) {
	// Arrange
	router, tasks, _ := setupTaskTest(t, uuid.New())
	tasks.On("GetByID", mock.Anything, mock.Anything).Return(nil, repository.ErrTaskNotFound)

	// Act
	resp := serve(router, "GET", "/tasks/"+uuid.NewString(), nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTaskGet_InvalidID(t *testing.T) {
	// Arrange
	router, _, _ := setupTaskTest(t, uuid.New())

	// Act
	resp := serve(router, "GET", "/tasks/not-a-uuid", nil)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTaskBulk_ContinuesPastFailures(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, tasks, _ := setupTaskTest(t, userID)
	fixture := taskFixture(userID)[:3]
	var updated []uuid.UUID
	for i := range fixture {
		task := fixture[i]
		tasks.On("GetByID", mock.Anything, task.ID).Return(&task, nil)
	}
	record := func(args mock.Arguments) { updated = append(updated, args.Get(1).(*model.Task).ID) }
	tasks.On("Update", mock.Anything, mock.MatchedBy(func(task *model.Task) bool { return task.ID == fixture[0].ID })).Run(record).Return(nil)
	tasks.On("Update", mock.Anything, mock.MatchedBy(func(task *model.Task) bool { return task.ID == fixture[1].ID })).Run(record).Return(errors.New("deadlock detected"))
	tasks.On("Update", mock.Anything, mock.MatchedBy(func(task *model.Task) bool { return task.ID == fixture[2].ID })).Run(record).Return(nil)

	// Act
	resp := serve(router, "POST", "/tasks/bulk", handler.BulkRequest{
		IDs:    []uuid.UUID{fixture[0].ID, fixture[1].ID, fixture[2].ID},
		Action: "status",
		Status: model.StatusCompleted,
	})

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Success   bool                     `json:"success"`
		Results   []handler.BulkItemResult `json:"results"`
		Succeeded int                      `json:"succeeded"`
		Failed    int                      `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, 2, body.Succeeded)
	assert.Equal(t, 1, body.Failed)
	assert.Equal(t, []uuid.UUID{fixture[0].ID, fixture[1].ID, fixture[2].ID}, updated)
	assert.False(t, body.Results[1].Success)
	assert.Equal(t, "deadlock detected", body.Results[1].Error)
}

func TestTaskBulk_StatusActionNeedsStatus(t *testing.T) {
	// Arrange
	router, _, _ := setupTaskTest(t, uuid.New())

	// Act
	resp := serve(router, "POST", "/tasks/bulk", `{"ids":["`+uuid.NewString()+`"],"action":"status"}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTaskCalendar_Week(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, tasks, _ := setupTaskTest(t, userID)
	tasks.On("List", mock.Anything, mock.Anything).Return(taskFixture(userID), nil)

	// Act
	resp := serve(router, "GET", "/tasks/calendar?mode=week&date=2026-03-10", nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Data struct {
			Mode  string `json:"mode"`
			Cells []struct {
				Tasks []model.Task `json:"tasks"`
			} `json:"cells"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "week", body.Data.Mode)
	assert.Len(t, body.Data.Cells, 7)
}

func TestTaskCalendar_BadMode(t *testing.T) {
	// Arrange
	router, _, _ := setupTaskTest(t, uuid.New())

	// Act
	resp := serve(router, "GET", "/tasks/calendar?mode=year", nil)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTaskTimeline_EmptyRange(t *testing.T) {
	// Arrange
	router, tasks, _ := setupTaskTest(t, uuid.New())

	// Act
	resp := serve(router, "GET", "/tasks/timeline?from=2026-03-20&to=2026-03-10", nil)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	tasks.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestTaskDelete_Creator(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, tasks, _ := setupTaskTest(t, userID)
	task := &model.Task{ID: uuid.New(), Title: "Order appraisal", CreatedBy: &userID}
	tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	tasks.On("Delete", mock.Anything, task.ID).Return(nil)

	// Act
	resp := serve(router, "DELETE", "/tasks/"+task.ID.String(), nil)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	tasks.AssertExpectations(t)
}
