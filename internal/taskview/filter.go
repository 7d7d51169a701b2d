package taskview

import (
	"slices"
	"strings"
	"time"

	"exchangedesk/internal/model"
)

// Timeframe selects tasks by due date. Only one timeframe is active at a time.
type Timeframe string

const (
	TimeframeAll       Timeframe = ""
	TimeframeOverdue   Timeframe = "overdue"
	TimeframeToday     Timeframe = "today"
	TimeframeThisWeek  Timeframe = "this-week"
	TimeframeThisMonth Timeframe = "this-month"
)

func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeAll, TimeframeOverdue, TimeframeToday, TimeframeThisWeek, TimeframeThisMonth:
		return true
	}
	return false
}

// ParseTimeframe maps user input to a Timeframe. "all" and unknown values
// select every task.
func ParseTimeframe(s string) Timeframe {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if tf == "all" || !tf.Valid() {
		return TimeframeAll
	}
	return tf
}

// unsetValue selects tasks whose status or priority is not set.
const unsetValue = "NONE"

// ParseStatuses normalizes user-supplied statuses: case is ignored and
// "none" selects tasks without a status.
func ParseStatuses(values []string) []model.TaskStatus {
	var out []model.TaskStatus
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == unsetValue {
			v = ""
		}
		out = append(out, model.TaskStatus(v))
	}
	return out
}

// ParsePriorities is ParseStatuses for priorities.
func ParsePriorities(values []string) []model.TaskPriority {
	var out []model.TaskPriority
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == unsetValue {
			v = ""
		}
		out = append(out, model.TaskPriority(v))
	}
	return out
}

// UnassignedKey is the assignee key of tasks nobody owns.
const UnassignedKey = "Unassigned"

// FilterState is the set of criteria the user picked in a list view.
// Dimensions are combined with AND; values inside one dimension with OR.
// An empty dimension matches everything.
type FilterState struct {
	Search     string               `json:"search,omitempty"`
	Statuses   []model.TaskStatus   `json:"statuses,omitempty"`
	Priorities []model.TaskPriority `json:"priorities,omitempty"`
	Assignees  []string             `json:"assignees,omitempty"`
	Timeframe  Timeframe            `json:"timeframe,omitempty"`
}

// IsZero reports whether no dimension is active.
func (f FilterState) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" &&
		len(f.Statuses) == 0 &&
		len(f.Priorities) == 0 &&
		len(f.Assignees) == 0 &&
		f.Timeframe == TimeframeAll
}

// AssigneeKey is the display key used to filter and group by assignee:
// the assignee's name, else the raw assignee id, else "Unassigned".
func AssigneeKey(t model.Task) string {
	if t.Assignee != nil && t.Assignee.Name != "" {
		return t.Assignee.Name
	}
	if t.AssigneeID != nil {
		return t.AssigneeID.String()
	}
	return UnassignedKey
}

func searchText(t model.Task) string {
	var b strings.Builder
	b.WriteString(t.Title)
	if t.Assignee != nil {
		for _, f := range []string{t.Assignee.Name, t.Assignee.Email} {
			if f != "" {
				b.WriteByte(' ')
				b.WriteString(f)
			}
		}
	}
	return strings.ToLower(b.String())
}

// Match reports whether t satisfies every active dimension of f.
func (f FilterState) Match(t model.Task, now time.Time) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(searchText(t), q) {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Assignees) > 0 && !slices.Contains(f.Assignees, AssigneeKey(t)) {
		return false
	}
	return f.matchTimeframe(t, now)
}

func (f FilterState) matchTimeframe(t model.Task, now time.Time) bool {
	if f.Timeframe == TimeframeAll {
		return true
	}
	if t.DueDate == nil {
		return false
	}
	switch f.Timeframe {
	case TimeframeOverdue:
		return t.DueDate.Before(now) && !SameDay(*t.DueDate, now) && t.Status != model.StatusCompleted
	case TimeframeToday:
		return SameDay(*t.DueDate, now)
	case TimeframeThisWeek:
		d := DaysUntil(*t.DueDate, now)
		return d > 0 && d <= weekDays
	case TimeframeThisMonth:
		d := DaysUntil(*t.DueDate, now)
		return d > 0 && d <= monthDays
	}
	return true
}

// Filter returns the tasks matching f, in their original order.
func Filter(tasks []model.Task, f FilterState, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}
