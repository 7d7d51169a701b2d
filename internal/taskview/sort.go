package taskview

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"exchangedesk/internal/model"
)

type SortField string

const (
	SortDueDate   SortField = "due_date"
	SortPriority  SortField = "priority"
	SortCreatedAt SortField = "created_at"
	SortTitle     SortField = "title"
)

func (f SortField) Valid() bool {
	switch f {
	case SortDueDate, SortPriority, SortCreatedAt, SortTitle:
		return true
	}
	return false
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec orders tasks by one field. A zero SortSpec keeps input order.
type SortSpec struct {
	Field     SortField `json:"field,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// DefaultSort shows the most recently created tasks first.
var DefaultSort = SortSpec{Field: SortCreatedAt, Direction: Desc}

// ParseSort builds a SortSpec from query values, falling back to def for
// anything it does not recognise.
func ParseSort(field, dir string, def SortSpec) SortSpec {
	spec := def
	if f := SortField(strings.ToLower(field)); f.Valid() {
		spec.Field = f
	}
	switch Direction(strings.ToLower(dir)) {
	case Asc:
		spec.Direction = Asc
	case Desc:
		spec.Direction = Desc
	}
	return spec
}

// comparator returns a three-way compare for the spec. Tasks without a due
// date sort last when ordering by due date, in either direction.
func (s SortSpec) comparator() func(a, b model.Task) int {
	sign := 1
	if s.Direction == Desc {
		sign = -1
	}

	switch s.Field {
	case SortDueDate:
		return func(a, b model.Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return sign * a.DueDate.Compare(*b.DueDate)
		}
	case SortPriority:
		return func(a, b model.Task) int {
			return sign * (a.Priority.Rank() - b.Priority.Rank())
		}
	case SortCreatedAt:
		return func(a, b model.Task) int {
			return sign * a.CreatedAt.Compare(b.CreatedAt)
		}
	case SortTitle:
		// A Collator keeps internal buffers; one per comparator.
		col := collate.New(language.English)
		return func(a, b model.Task) int {
			return sign * col.CompareString(a.Title, b.Title)
		}
	}
	return nil
}

// Sort returns a sorted copy of tasks. Equal elements keep their order.
func Sort(tasks []model.Task, spec SortSpec) []model.Task {
	out := slices.Clone(tasks)
	if cmp := spec.comparator(); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}
