package views_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
	"exchangedesk/internal/views"
)

var now = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

func task(title string, status model.TaskStatus) model.Task {
	return model.Task{ID: uuid.New(), Title: title, Status: status}
}

func TestListView_EmptyGroupsAreRendered(t *testing.T) {
	tasks := []model.Task{task("a", model.StatusPending)}
	v := views.NewListView()

	v.SetGroups(taskview.GroupTasks(tasks, taskview.GroupStatus, taskview.SortSpec{}, now), taskview.GroupStatus)
	rows := v.Rows()

	var headers []string
	for _, r := range rows {
		if r.Kind == views.RowHeader {
			headers = append(headers, r.Label)
		}
	}
	assert.Equal(t, []string{"PENDING", "IN_PROGRESS", "COMPLETED", "BLOCKED"}, headers)
	assert.Len(t, rows, 5)
}

func TestListView_CollapseHidesTasks(t *testing.T) {
	tasks := []model.Task{task("a", model.StatusPending), task("b", model.StatusPending)}
	v := views.NewListView()
	v.SetGroups(taskview.GroupTasks(tasks, taskview.GroupStatus, taskview.SortSpec{}, now), taskview.GroupStatus)

	v.ToggleGroup("PENDING")

	rows := v.Rows()
	assert.True(t, v.IsCollapsed("PENDING"))
	assert.Len(t, rows, 4)
	assert.True(t, rows[0].Collapsed)
	assert.Equal(t, 2, rows[0].Count)

	v.ToggleGroup("PENDING")
	assert.Len(t, v.Rows(), 6)
}

func TestListView_Selection(t *testing.T) {
	a, b, c := task("a", model.StatusPending), task("b", model.StatusBlocked), task("c", model.StatusPending)
	v := views.NewListView()
	v.SetGroups(taskview.GroupTasks([]model.Task{a, b, c}, taskview.GroupStatus, taskview.SortSpec{}, now), taskview.GroupStatus)

	assert.False(t, v.BulkBarVisible())

	v.Toggle(b.ID)
	v.Toggle(a.ID)
	assert.True(t, v.BulkBarVisible())
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, v.Selected())

	v.Toggle(a.ID)
	assert.Equal(t, []uuid.UUID{b.ID}, v.Selected())

	v.SelectAll()
	assert.Equal(t, []uuid.UUID{a.ID, c.ID, b.ID}, v.Selected())

	v.SelectAll()
	assert.False(t, v.BulkBarVisible())
}

func TestListView_SetGroupsDropsHiddenSelections(t *testing.T) {
	a, b := task("a", model.StatusPending), task("b", model.StatusPending)
	v := views.NewListView()
	v.SetGroups(taskview.GroupTasks([]model.Task{a, b}, taskview.GroupNone, taskview.SortSpec{}, now), taskview.GroupNone)
	v.SelectAll()

	v.SetGroups(taskview.GroupTasks([]model.Task{b}, taskview.GroupNone, taskview.SortSpec{}, now), taskview.GroupNone)

	require.Len(t, v.Selected(), 1)
	assert.False(t, v.IsSelected(a.ID))
}

func TestListView_SelectIgnoresHiddenTasks(t *testing.T) {
	a, b := task("a", model.StatusPending), task("b", model.StatusPending)
	v := views.NewListView()
	v.SetGroups(taskview.GroupTasks([]model.Task{a}, taskview.GroupNone, taskview.SortSpec{}, now), taskview.GroupNone)

	v.Select(a.ID, b.ID)

	assert.Equal(t, []uuid.UUID{a.ID}, v.Selected())
	assert.False(t, v.IsSelected(b.ID))
}
