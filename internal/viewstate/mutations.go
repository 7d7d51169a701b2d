package viewstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"exchangedesk/internal/model"
	"exchangedesk/internal/taskview"
)

// CreateTask validates and submits a new task. Creation is not optimistic:
// the task appears locally once the server has accepted it.
func (s *Session) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return model.Task{}, ErrTitleRequired
	}
	if t.ExchangeID == nil {
		t.ExchangeID = s.cfg.ExchangeID
	}

	created, err := s.api.CreateTask(ctx, t)
	if err != nil {
		s.logger.Error("create task failed", zap.Error(err))
		s.mu.Lock()
		s.notifyLocked(uuid.Nil, "Could not create task")
		s.mu.Unlock()
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, created)
	s.refreshLocked()
	return created, nil
}

// UpdateTask applies p locally, sends the result to the server, and either
// adopts the server's copy or replays the inverse change when the request
// fails. A failure is also recorded as a Notice.
func (s *Session) UpdateTask(ctx context.Context, id uuid.UUID, p taskview.Patch) error {
	if p.IsZero() {
		return nil
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotLoaded
	}
	before := s.tasks[i]
	undo := p.Inverse(before)
	optimistic := p.Apply(before)
	s.tasks[i] = optimistic
	s.refreshLocked()
	s.mu.Unlock()

	saved, err := s.api.UpdateTask(ctx, optimistic)

	s.mu.Lock()
	defer s.mu.Unlock()
	i = s.indexLocked(id)
	if err != nil {
		s.logger.Error("update task failed, reverting", zap.Stringer("task", id), zap.Error(err))
		if i >= 0 {
			s.tasks[i] = undo.Apply(s.tasks[i])
		}
		s.notifyLocked(id, fmt.Sprintf("Could not update %q; the change was undone", before.Title))
		s.refreshLocked()
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if i >= 0 && saved.ID == id {
		if saved.Assignee == nil && sameAssignee(saved, s.tasks[i]) {
			saved.Assignee = s.tasks[i].Assignee
		}
		s.tasks[i] = saved
	}
	s.refreshLocked()
	return nil
}

func sameAssignee(a, b model.Task) bool {
	if a.AssigneeID == nil || b.AssigneeID == nil {
		return a.AssigneeID == b.AssigneeID
	}
	return *a.AssigneeID == *b.AssigneeID
}

// DeleteTask removes the task locally and on the server, putting it back
// where it was if the server refuses.
func (s *Session) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotLoaded
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.refreshLocked()
	s.mu.Unlock()

	err := s.api.DeleteTask(ctx, id)
	if err == nil {
		return nil
	}

	s.logger.Error("delete task failed, restoring", zap.Stringer("task", id), zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	if i > len(s.tasks) {
		i = len(s.tasks)
	}
	s.tasks = append(s.tasks[:i:i], append([]model.Task{removed}, s.tasks[i:]...)...)
	s.notifyLocked(id, fmt.Sprintf("Could not delete %q", removed.Title))
	s.refreshLocked()
	return fmt.Errorf("delete task %s: %w", id, err)
}

// MoveCard handles a board drop of task id onto column toKey.
func (s *Session) MoveCard(ctx context.Context, id uuid.UUID, toKey string) error {
	s.mu.Lock()
	p, err := s.board.Drop(id, toKey, s.clock.Now())
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.UpdateTask(ctx, id, p)
}

type BulkKind string

const (
	BulkSetStatus   BulkKind = "status"
	BulkSetPriority BulkKind = "priority"
	BulkDelete      BulkKind = "delete"
)

type BulkAction struct {
	Kind     BulkKind
	Status   model.TaskStatus
	Priority model.TaskPriority
}

func (a BulkAction) patch() (taskview.Patch, error) {
	switch a.Kind {
	case BulkSetStatus:
		return taskview.Patch{SetStatus: true, Status: a.Status}, nil
	case BulkSetPriority:
		return taskview.Patch{SetPriority: true, Priority: a.Priority}, nil
	}
	return taskview.Patch{}, fmt.Errorf("unknown bulk action %q", a.Kind)
}

type BulkResult struct {
	Succeeded []uuid.UUID
	Failed    []uuid.UUID
}

// Bulk applies action to every selected task, one request at a time in
// display order. It is not atomic: a failure leaves earlier tasks changed
// and does not stop later ones. Failed tasks are reverted and stay
// selected; the returned error aggregates every failure.
func (s *Session) Bulk(ctx context.Context, action BulkAction) (BulkResult, error) {
	var p taskview.Patch
	if action.Kind != BulkDelete {
		var err error
		if p, err = action.patch(); err != nil {
			return BulkResult{}, err
		}
	}

	s.mu.Lock()
	ids := s.list.Selected()
	s.mu.Unlock()
	if len(ids) == 0 {
		return BulkResult{}, ErrNoSelection
	}

	var (
		res  BulkResult
		errs *multierror.Error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, id)
			errs = multierror.Append(errs, err)
			continue
		}
		var err error
		if action.Kind == BulkDelete {
			err = s.DeleteTask(ctx, id)
		} else {
			err = s.UpdateTask(ctx, id, p)
		}
		if err != nil {
			res.Failed = append(res.Failed, id)
			errs = multierror.Append(errs, err)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}

	// An optimistic patch can move a task out of the filter, which drops it
	// from the selection until the revert brings it back.
	s.mu.Lock()
	s.list.Deselect(res.Succeeded...)
	s.list.Select(res.Failed...)
	s.mu.Unlock()

	if err := errs.ErrorOrNil(); err != nil {
		s.logger.Warn("bulk action partially failed",
			zap.String("action", string(action.Kind)),
			zap.Int("succeeded", len(res.Succeeded)),
			zap.Int("failed", len(res.Failed)))
		return res, err
	}
	return res, nil
}
