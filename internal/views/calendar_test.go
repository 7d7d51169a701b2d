package views_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangedesk/internal/model"
	"exchangedesk/internal/views"
)

func due(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildCalendar_MonthGrid(t *testing.T) {
	var tasks []model.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, model.Task{Title: "busy", DueDate: due(2026, time.March, 12, 9+i)})
	}
	tasks = append(tasks,
		model.Task{Title: "undated"},
		model.Task{Title: "next month", DueDate: due(2026, time.April, 2, 9)},
		model.Task{Title: "far", DueDate: due(2026, time.June, 1, 9)},
	)

	cal := views.BuildCalendar(tasks, views.CalendarMonth, now)

	// March 2026 starts on a Sunday and ends on a Tuesday.
	require.Len(t, cal.Cells, 35)
	assert.True(t, cal.Cells[0].InRange)
	assert.Equal(t, 1, cal.Cells[0].Date.Day())
	assert.False(t, cal.Cells[34].InRange)

	busy := cal.Cells[11]
	assert.Equal(t, 12, busy.Date.Day())
	assert.Len(t, busy.Tasks, views.MonthCellLimit)
	assert.Equal(t, 2, busy.Overflow)

	spill := cal.Cells[32]
	assert.Equal(t, time.April, spill.Date.Month())
	assert.Len(t, spill.Tasks, 1)

	total := 0
	for _, c := range cal.Cells {
		total += len(c.Tasks) + c.Overflow
	}
	assert.Equal(t, 6, total)
}

func TestBuildCalendar_WeekDoesNotTruncate(t *testing.T) {
	var tasks []model.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, model.Task{DueDate: due(2026, time.March, 11, 9+i)})
	}

	cal := views.BuildCalendar(tasks, views.CalendarWeek, now)

	require.Len(t, cal.Cells, 7)
	assert.Len(t, cal.Cells[3].Tasks, 5)
	assert.Zero(t, cal.Cells[3].Overflow)
}

func TestBuildCalendar_Day(t *testing.T) {
	tasks := []model.Task{
		{Title: "today", DueDate: due(2026, time.March, 10, 18)},
		{Title: "tomorrow", DueDate: due(2026, time.March, 11, 1)},
	}

	cal := views.BuildCalendar(tasks, views.CalendarDay, now)

	require.Len(t, cal.Cells, 1)
	require.Len(t, cal.Cells[0].Tasks, 1)
	assert.Equal(t, "today", cal.Cells[0].Tasks[0].Title)
}

func TestParseCalendarMode(t *testing.T) {
	m, err := views.ParseCalendarMode("")
	assert.NoError(t, err)
	assert.Equal(t, views.CalendarMonth, m)

	_, err = views.ParseCalendarMode("year")
	assert.Error(t, err)
}
