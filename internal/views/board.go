package views

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
)

type Column struct {
	Key   string
	Label string
	Tasks []model.Task
	// Limit is a soft cap used only to warn; zero means none.
	Limit int
}

// OverLimit reports whether the column holds more cards than its soft cap.
func (c Column) OverLimit() bool {
	return c.Limit > 0 && len(c.Tasks) > c.Limit
}

// BoardView lays grouped tasks out as kanban columns.
type BoardView struct {
	by      taskview.GroupBy
	limits  map[string]int
	columns []Column
}

// NewBoardView creates a board grouped by by. limits maps column keys to
// soft caps.
func NewBoardView(by taskview.GroupBy, limits map[string]int) *BoardView {
	if by == taskview.GroupNone || by == "" {
		by = taskview.GroupStatus
	}
	return &BoardView{by: by, limits: limits}
}

func (b *BoardView) GroupBy() taskview.GroupBy { return b.by }

// SetGroups rebuilds the columns. The fixed columns of the grouping are
// always present even when empty.
func (b *BoardView) SetGroups(groups []taskview.Group) {
	merged := taskview.WithFixedGroups(groups, b.by)
	b.columns = make([]Column, len(merged))
	for i, g := range merged {
		b.columns[i] = Column{Key: g.Key, Label: g.Label, Tasks: g.Tasks, Limit: b.limits[g.Key]}
	}
}

func (b *BoardView) Columns() []Column { return b.columns }

// ColumnOf returns the key of the column currently holding the task.
func (b *BoardView) ColumnOf(id uuid.UUID) (string, bool) {
	for _, c := range b.columns {
		for _, t := range c.Tasks {
			if t.ID == id {
				return c.Key, true
			}
		}
	}
	return "", false
}

// Drop computes the change that moving a card into column toKey implies.
// Dropping a card on its own column yields a zero patch.
func (b *BoardView) Drop(id uuid.UUID, toKey string, now time.Time) (taskview.Patch, error) {
	from, ok := b.ColumnOf(id)
	if !ok {
		return taskview.Patch{}, fmt.Errorf("task %s is not on the board", id)
	}
	if from == toKey {
		return taskview.Patch{}, nil
	}
	return taskview.PatchForGroup(b.by, toKey, now)
}
