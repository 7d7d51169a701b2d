// Package views holds the presentation state of the four task views. Each
// view consumes grouped or flat task data and keeps its own UI state; none
// of them talks to the API.
package views

import (
	"github.com/google/uuid"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
)

// RowKind distinguishes group headers from task rows in a rendered list.
type RowKind int

const (
	RowHeader RowKind = iota
	RowTask
)

type ListRow struct {
	Kind      RowKind
	GroupKey  string
	Label     string
	Count     int
	Collapsed bool
	Task      *model.Task
	Selected  bool
}

// ListView tracks collapsed groups and selected tasks.
type ListView struct {
	groups    []taskview.Group
	collapsed map[string]bool
	selected  map[uuid.UUID]bool
}

func NewListView() *ListView {
	return &ListView{
		collapsed: make(map[string]bool),
		selected:  make(map[uuid.UUID]bool),
	}
}

// SetGroups replaces the data shown. Empty fixed groups for by are kept, and
// selections of tasks that are no longer visible are dropped.
func (v *ListView) SetGroups(groups []taskview.Group, by taskview.GroupBy) {
	v.groups = taskview.WithFixedGroups(groups, by)

	visible := make(map[uuid.UUID]bool)
	for _, g := range v.groups {
		for _, t := range g.Tasks {
			visible[t.ID] = true
		}
	}
	for id := range v.selected {
		if !visible[id] {
			delete(v.selected, id)
		}
	}
}

func (v *ListView) Groups() []taskview.Group { return v.groups }

func (v *ListView) ToggleGroup(key string) {
	v.collapsed[key] = !v.collapsed[key]
}

func (v *ListView) IsCollapsed(key string) bool { return v.collapsed[key] }

func (v *ListView) Toggle(id uuid.UUID) {
	if v.selected[id] {
		delete(v.selected, id)
		return
	}
	v.selected[id] = true
}

func (v *ListView) IsSelected(id uuid.UUID) bool { return v.selected[id] }

// SelectAll selects every visible task, or clears the selection when every
// visible task is already selected.
func (v *ListView) SelectAll() {
	all := v.visibleIDs()
	if len(all) > 0 && len(v.selected) == len(all) {
		v.ClearSelection()
		return
	}
	for _, id := range all {
		v.selected[id] = true
	}
}

func (v *ListView) ClearSelection() {
	clear(v.selected)
}

// Select adds ids to the selection. Ids of tasks that are not visible are
// ignored.
func (v *ListView) Select(ids ...uuid.UUID) {
	visible := make(map[uuid.UUID]bool)
	for _, id := range v.visibleIDs() {
		visible[id] = true
	}
	for _, id := range ids {
		if visible[id] {
			v.selected[id] = true
		}
	}
}

// Deselect removes ids from the selection.
func (v *ListView) Deselect(ids ...uuid.UUID) {
	for _, id := range ids {
		delete(v.selected, id)
	}
}

// Selected returns the selected task ids in display order.
func (v *ListView) Selected() []uuid.UUID {
	var out []uuid.UUID
	for _, id := range v.visibleIDs() {
		if v.selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// BulkBarVisible reports whether the bulk action bar is shown.
func (v *ListView) BulkBarVisible() bool { return len(v.selected) > 0 }

// Rows flattens the groups into header and task rows, skipping the tasks
// of collapsed groups.
func (v *ListView) Rows() []ListRow {
	var rows []ListRow
	for _, g := range v.groups {
		collapsed := v.collapsed[g.Key]
		rows = append(rows, ListRow{
			Kind:      RowHeader,
			GroupKey:  g.Key,
			Label:     g.Label,
			Count:     g.Len(),
			Collapsed: collapsed,
		})
		if collapsed {
			continue
		}
		for i := range g.Tasks {
			t := &g.Tasks[i]
			rows = append(rows, ListRow{
				Kind:     RowTask,
				GroupKey: g.Key,
				Task:     t,
				Selected: v.selected[t.ID],
			})
		}
	}
	return rows
}

func (v *ListView) visibleIDs() []uuid.UUID {
	var out []uuid.UUID
	for _, g := range v.groups {
		for _, t := range g.Tasks {
			out = append(out, t.ID)
		}
	}
	return out
}
