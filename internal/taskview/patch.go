package taskview

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jnow "github.com/jinzhu/now"

	"exchangedesk/internal/model"
)

// ErrNotDroppable is returned when a task cannot be moved into a group,
// e.g. the "Overdue" bucket of a due-date board.
var ErrNotDroppable = errors.New("tasks cannot be moved into this group")

// Patch is a partial change to a task. Only fields whose Set flag is true
// are written.
type Patch struct {
	SetStatus bool
	Status    model.TaskStatus

	SetPriority bool
	Priority    model.TaskPriority

	SetDueDate bool
	DueDate    *time.Time

	SetAssignee bool
	AssigneeID  *uuid.UUID
	// Assignee is the loaded user for AssigneeID, when the caller has it.
	Assignee *model.User
}

func (p Patch) IsZero() bool {
	return !p.SetStatus && !p.SetPriority && !p.SetDueDate && !p.SetAssignee
}

// Apply returns t with the patch written over it.
func (p Patch) Apply(t model.Task) model.Task {
	if p.SetStatus {
		t.Status = p.Status
	}
	if p.SetPriority {
		t.Priority = p.Priority
	}
	if p.SetDueDate {
		t.DueDate = p.DueDate
	}
	if p.SetAssignee {
		t.AssigneeID = p.AssigneeID
		switch {
		case p.AssigneeID != nil && p.Assignee != nil && p.Assignee.ID == *p.AssigneeID:
			t.Assignee = p.Assignee
		case t.Assignee != nil && (p.AssigneeID == nil || t.Assignee.ID != *p.AssigneeID):
			t.Assignee = nil
		}
	}
	return t
}

// Inverse returns the patch that restores the fields p touches to their
// values in before.
func (p Patch) Inverse(before model.Task) Patch {
	inv := Patch{}
	if p.SetStatus {
		inv.SetStatus, inv.Status = true, before.Status
	}
	if p.SetPriority {
		inv.SetPriority, inv.Priority = true, before.Priority
	}
	if p.SetDueDate {
		inv.SetDueDate, inv.DueDate = true, before.DueDate
	}
	if p.SetAssignee {
		inv.SetAssignee, inv.AssigneeID, inv.Assignee = true, before.AssigneeID, before.Assignee
	}
	return inv
}

// PatchForGroup returns the change that moves a task into the group with
// the given key under by.
func PatchForGroup(by GroupBy, key string, now time.Time) (Patch, error) {
	switch by {
	case GroupStatus:
		s := model.TaskStatus(key)
		if s != "" && !s.Valid() {
			return Patch{}, fmt.Errorf("unknown status %q", key)
		}
		return Patch{SetStatus: true, Status: s}, nil
	case GroupPriority:
		p := model.TaskPriority(key)
		if p != "" && !p.Valid() {
			return Patch{}, fmt.Errorf("unknown priority %q", key)
		}
		return Patch{SetPriority: true, Priority: p}, nil
	case GroupAssignee:
		if key == "" {
			return Patch{SetAssignee: true}, nil
		}
		id, err := uuid.Parse(key)
		if err != nil {
			return Patch{}, fmt.Errorf("invalid assignee %q: %w", key, err)
		}
		return Patch{SetAssignee: true, AssigneeID: &id}, nil
	case GroupDueDate:
		switch DueBucket(key) {
		case BucketToday:
			due := jnow.With(now).EndOfDay()
			return Patch{SetDueDate: true, DueDate: &due}, nil
		case BucketNoDueDate:
			return Patch{SetDueDate: true}, nil
		}
	}
	return Patch{}, ErrNotDroppable
}
