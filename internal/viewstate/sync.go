package viewstate

import (
	"context"
	"encoding/json"
	"slices"

	"go.uber.org/zap"

	"exchangedesk/internal/views"
)

// WatchPreferences applies preference changes made by other views of the
// same owner until ctx is done. It returns immediately when the session has
// no store or the store has no hub.
func (s *Session) WatchPreferences(ctx context.Context) {
	if s.store == nil || s.store.Hub() == nil {
		return
	}
	changes, cancel := s.store.Hub().Subscribe(s.store.Owner())
	defer cancel()

	key := s.prefsKey()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.Key != key {
				continue
			}
			// Decode over the current values so a partial change keeps them.
			p := s.Prefs()
			p.Columns = slices.Clone(p.Columns)
			p.Filter = nil
			if err := json.Unmarshal([]byte(c.Value), &p); err != nil {
				s.logger.Debug("ignoring undecodable preference change", zap.Error(err))
				continue
			}
			s.applyPrefs(p.normalized())
		}
	}
}

func (s *Session) applyPrefs(p ViewPrefs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.GroupBy != s.prefs.GroupBy {
		s.board = views.NewBoardView(p.GroupBy, s.cfg.BoardLimits)
	}
	s.prefs.GroupBy = p.GroupBy
	s.prefs.Sort = p.Sort
	s.prefs.Columns = slices.Clone(p.Columns)
	if s.cfg.PersistFilter && p.Filter != nil {
		f := *p.Filter
		s.prefs.Filter = &f
		s.filter = f
	}
	s.refreshLocked()
}
