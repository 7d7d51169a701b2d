package views

import (
	"fmt"
	"strings"
	"time"

	jnow "github.com/jinzhu/now"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
)

type CalendarMode string

const (
	CalendarMonth CalendarMode = "month"
	CalendarWeek  CalendarMode = "week"
	CalendarDay   CalendarMode = "day"
)

func ParseCalendarMode(s string) (CalendarMode, error) {
	switch m := CalendarMode(strings.ToLower(s)); m {
	case "", CalendarMonth:
		return CalendarMonth, nil
	case CalendarWeek, CalendarDay:
		return m, nil
	}
	return "", fmt.Errorf("unknown calendar mode %q", s)
}

// MonthCellLimit is how many tasks a month cell lists before it shows an
// overflow count.
const MonthCellLimit = 3

type CalendarCell struct {
	Date     time.Time    `json:"date"`
	InRange  bool         `json:"in_range"`
	Tasks    []model.Task `json:"tasks"`
	Overflow int          `json:"overflow"`
}

type Calendar struct {
	Mode  CalendarMode   `json:"mode"`
	From  time.Time      `json:"from"`
	To    time.Time      `json:"to"`
	Cells []CalendarCell `json:"cells"`
}

// BuildCalendar lays tasks out on a date grid around anchor. Month grids
// span whole weeks, so leading and trailing cells belong to neighbouring
// months and have InRange false. Tasks without a due date are left out.
func BuildCalendar(tasks []model.Task, mode CalendarMode, anchor time.Time) Calendar {
	n := jnow.With(anchor)
	var gridStart, gridEnd, rangeStart, rangeEnd time.Time
	switch mode {
	case CalendarWeek:
		rangeStart, rangeEnd = n.BeginningOfWeek(), n.EndOfWeek()
		gridStart, gridEnd = rangeStart, rangeEnd
	case CalendarDay:
		rangeStart, rangeEnd = n.BeginningOfDay(), n.EndOfDay()
		gridStart, gridEnd = rangeStart, rangeEnd
	default:
		mode = CalendarMonth
		rangeStart, rangeEnd = n.BeginningOfMonth(), n.EndOfMonth()
		gridStart = jnow.With(rangeStart).BeginningOfWeek()
		gridEnd = jnow.With(rangeEnd).EndOfWeek()
	}

	byDay := make(map[string][]model.Task)
	for _, t := range taskview.Sort(tasks, taskview.SortSpec{Field: taskview.SortDueDate, Direction: taskview.Asc}) {
		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.In(anchor.Location())
		if due.Before(gridStart) || due.After(gridEnd) {
			continue
		}
		key := due.Format(time.DateOnly)
		byDay[key] = append(byDay[key], t)
	}

	cal := Calendar{Mode: mode, From: gridStart, To: gridEnd}
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		cell := CalendarCell{
			Date:    d,
			InRange: !d.Before(rangeStart) && !d.After(rangeEnd),
			Tasks:   byDay[d.Format(time.DateOnly)],
		}
		if cell.Tasks == nil {
			cell.Tasks = []model.Task{}
		}
		if mode == CalendarMonth && len(cell.Tasks) > MonthCellLimit {
			cell.Overflow = len(cell.Tasks) - MonthCellLimit
			cell.Tasks = cell.Tasks[:MonthCellLimit]
		}
		cal.Cells = append(cal.Cells, cell)
	}
	return cal
}
