// Package viewstate ties the task views to the remote API: it loads the
// task list, runs it through the filter and grouping engine, and applies
// user edits optimistically, undoing them when the server rejects them.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"exchangedesk/internal/client"
	"exchangedesk/internal/model"
	"exchangedesk/internal/prefs"
	"exchangedesk/internal/taskview"
	"exchangedesk/internal/views"
)

var (
	ErrTaskNotLoaded = errors.New("task is not loaded")
	ErrTitleRequired = errors.New("title is required")
	ErrNoSelection   = errors.New("no tasks selected")
)

// TaskAPI is the part of the REST client a session needs.
type TaskAPI interface {
	ListTasks(ctx context.Context, q client.TaskQuery) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListParticipants(ctx context.Context, exchangeID uuid.UUID) ([]model.Participant, error)
}

var _ TaskAPI = (*client.Client)(nil)

// Notice is a user-visible message about a failed operation.
type Notice struct {
	TaskID  uuid.UUID
	Message string
	At      time.Time
}

// ViewPrefs is what a session persists per view.
type ViewPrefs struct {
	GroupBy taskview.GroupBy      `json:"group_by"`
	Sort    taskview.SortSpec     `json:"sort"`
	Columns []string              `json:"columns,omitempty"`
	Filter  *taskview.FilterState `json:"filter,omitempty"`
}

// DefaultViewPrefs is used when nothing valid is stored.
var DefaultViewPrefs = ViewPrefs{
	GroupBy: taskview.GroupStatus,
	Sort:    taskview.DefaultSort,
	Columns: []string{"title", "status", "priority", "assignee", "due_date"},
}

// normalized replaces values a session cannot use with their defaults.
func (p ViewPrefs) normalized() ViewPrefs {
	if by := taskview.ParseGroupBy(string(p.GroupBy)); by != taskview.GroupNone || p.GroupBy == taskview.GroupNone {
		p.GroupBy = by
	} else {
		p.GroupBy = DefaultViewPrefs.GroupBy
	}
	if !p.Sort.Field.Valid() {
		p.Sort = DefaultViewPrefs.Sort
	}
	if p.Sort.Direction != taskview.Asc && p.Sort.Direction != taskview.Desc {
		p.Sort.Direction = DefaultViewPrefs.Sort.Direction
	}
	if p.Columns == nil {
		p.Columns = slices.Clone(DefaultViewPrefs.Columns)
	}
	return p
}

type Config struct {
	ViewID     string
	ExchangeID *uuid.UUID
	// PersistFilter stores the filter with the other view preferences.
	PersistFilter bool
	BoardLimits   map[string]int
	Clock         taskview.Clock
	Logger        *zap.Logger
}

// Session is the state of one mounted task view.
type Session struct {
	api    TaskAPI
	store  *prefs.Store
	cfg    Config
	clock  taskview.Clock
	logger *zap.Logger

	mu           sync.Mutex
	tasks        []model.Task
	participants []model.Participant
	prefs        ViewPrefs
	filter       taskview.FilterState
	list         *views.ListView
	board        *views.BoardView
	notices      []Notice
}

// NewSession mounts a view. Stored preferences are read once here; store
// may be nil for views that persist nothing.
func NewSession(ctx context.Context, api TaskAPI, store *prefs.Store, cfg Config) *Session {
	if cfg.ViewID == "" {
		cfg.ViewID = "tasks"
	}
	clock := cfg.Clock
	if clock == nil {
		clock = taskview.SystemClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		api:    api,
		store:  store,
		cfg:    cfg,
		clock:  clock,
		logger: logger.With(zap.String("view", cfg.ViewID)),
		prefs:  DefaultViewPrefs,
		list:   views.NewListView(),
	}
	if store != nil {
		s.prefs = prefs.Load(ctx, store, s.prefsKey(), DefaultViewPrefs).normalized()
	}
	if cfg.PersistFilter && s.prefs.Filter != nil {
		s.filter = *s.prefs.Filter
	}
	s.board = views.NewBoardView(s.prefs.GroupBy, cfg.BoardLimits)
	s.refreshLocked()
	return s
}

func (s *Session) prefsKey() string {
	return prefs.Key(s.cfg.ViewID, "settings")
}

// Load fetches the task list, and the exchange's participants when the view
// is scoped to an exchange, replacing whatever was loaded before.
func (s *Session) Load(ctx context.Context) error {
	var (
		tasks        []model.Task
		participants []model.Participant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.api.ListTasks(gctx, client.TaskQuery{ExchangeID: s.cfg.ExchangeID})
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		return nil
	})
	if s.cfg.ExchangeID != nil {
		g.Go(func() error {
			var err error
			participants, err = s.api.ListParticipants(gctx, *s.cfg.ExchangeID)
			if err != nil {
				return fmt.Errorf("load participants: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("load failed", zap.Error(err))
		s.mu.Lock()
		s.notifyLocked(uuid.Nil, "Could not load tasks")
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.participants = participants
	s.refreshLocked()
	return nil
}

// refreshLocked reruns filter, sort and grouping and feeds the views.
func (s *Session) refreshLocked() {
	now := s.clock.Now()
	visible := taskview.Filter(s.tasks, s.filter, now)
	s.list.SetGroups(taskview.GroupTasks(visible, s.prefs.GroupBy, s.prefs.Sort, now), s.prefs.GroupBy)
	s.board.SetGroups(taskview.GroupTasks(visible, s.board.GroupBy(), s.prefs.Sort, now))
}

func (s *Session) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Session) Participants() []model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.participants)
}

// Task returns the loaded copy of a task.
func (s *Session) Task(id uuid.UUID) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Visible returns the filtered tasks in sort order.
func (s *Session) Visible() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	return taskview.Sort(taskview.Filter(s.tasks, s.filter, now), s.prefs.Sort)
}

// Groups returns the filtered tasks grouped by the current grouping.
func (s *Session) Groups() []taskview.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	return taskview.GroupTasks(taskview.Filter(s.tasks, s.filter, now), s.prefs.GroupBy, s.prefs.Sort, now)
}

// List and Board expose the view machines. Callers must not hold on to them
// across session calls from other goroutines.
func (s *Session) List() *views.ListView { return s.list }

func (s *Session) Board() *views.BoardView { return s.board }

// Calendar renders the filtered tasks on a date grid.
func (s *Session) Calendar(mode views.CalendarMode, anchor time.Time) views.Calendar {
	return views.BuildCalendar(s.Visible(), mode, anchor)
}

// Timeline renders the filtered tasks as bars between from and to.
func (s *Session) Timeline(from, to time.Time) (views.Timeline, error) {
	return views.BuildTimeline(s.Visible(), from, to)
}

func (s *Session) Filter() taskview.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) Prefs() ViewPrefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Session) SetFilter(ctx context.Context, f taskview.FilterState) {
	s.mu.Lock()
	s.filter = f
	if s.cfg.PersistFilter {
		fc := f
		s.prefs.Filter = &fc
	}
	s.refreshLocked()
	p := s.prefs
	s.mu.Unlock()

	if s.cfg.PersistFilter {
		s.savePrefs(ctx, p)
	}
}

func (s *Session) SetGroupBy(ctx context.Context, by taskview.GroupBy) {
	s.mu.Lock()
	s.prefs.GroupBy = by
	s.board = views.NewBoardView(by, s.cfg.BoardLimits)
	s.refreshLocked()
	p := s.prefs
	s.mu.Unlock()
	s.savePrefs(ctx, p)
}

func (s *Session) SetSort(ctx context.Context, spec taskview.SortSpec) {
	s.mu.Lock()
	s.prefs.Sort = spec
	s.refreshLocked()
	p := s.prefs
	s.mu.Unlock()
	s.savePrefs(ctx, p)
}

func (s *Session) SetColumns(ctx context.Context, columns []string) {
	s.mu.Lock()
	s.prefs.Columns = slices.Clone(columns)
	p := s.prefs
	s.mu.Unlock()
	s.savePrefs(ctx, p)
}

// savePrefs writes preferences; failures only cost persistence.
func (s *Session) savePrefs(ctx context.Context, p ViewPrefs) {
	if s.store == nil {
		return
	}
	if err := prefs.Save(ctx, s.store, s.prefsKey(), p); err != nil {
		s.logger.Warn("saving view preferences failed", zap.Error(err))
	}
}

// Notices returns the messages recorded for failed operations.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notices)
}

func (s *Session) DismissNotices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = nil
}

func (s *Session) notifyLocked(id uuid.UUID, msg string) {
	s.notices = append(s.notices, Notice{TaskID: id, Message: msg, At: s.clock.Now()})
}

func (s *Session) indexLocked(id uuid.UUID) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}
