package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/ports"
)

// Observer receives the only two data events a renderer has to follow.
// Either callback may be nil.
type Observer struct {
	PapersChanged    func(View)
	BookmarksChanged func([]domain.BookmarkRecord)
}

// View is the render-ready projection of the session.
type View struct {
	Papers     []domain.PaperRecord
	Total      int
	State      domain.FilterState
	Empty      domain.EmptyReason
	Message    string
	Failed     bool
	RunID      string
	UpdatedAt  time.Time
	Bookmarked map[string]bool
}

// SessionDeps wires the session collaborators.
type SessionDeps struct {
	Source       ports.PaperSource
	Bookmarks    *BookmarkStore
	QuickFilters []domain.QuickFilter
	Initial      domain.FilterState
	Observer     Observer
	Logger       *slog.Logger
}

// Session owns the filter state and the current paper collection. Every
// mutating input goes through a named method; observers are notified after
// the lock is released.
type Session struct {
	source    ports.PaperSource
	bookmarks *BookmarkStore
	quick     []domain.QuickFilter
	observer  Observer
	logger    *slog.Logger

	mu        sync.Mutex
	state     domain.FilterState
	papers    []domain.PaperRecord
	empty     domain.EmptyReason
	failed    bool
	runID     string
	updatedAt time.Time
}

// NewSession constructs a session around the initial filter state.
func NewSession(deps SessionDeps) *Session {
	state := deps.Initial
	if state.ActiveCategories == nil {
		state = domain.NewFilterState(nil, state.QuickFilterKey, state.DateRange)
	}
	return &Session{
		source:    deps.Source,
		bookmarks: deps.Bookmarks,
		quick:     deps.QuickFilters,
		observer:  deps.Observer,
		logger:    deps.Logger,
		state:     state,
	}
}

// State returns the current filter state.
func (s *Session) State() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View computes the filtered projection of the current collection.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Bookmarks returns the persisted set.
func (s *Session) Bookmarks() []domain.BookmarkRecord {
	if s.bookmarks == nil {
		return nil
	}
	return s.bookmarks.List()
}

// ToggleCategory flips a category. Activating one in ranged mode needs data
// the current collection does not have, so it triggers a refresh.
func (s *Session) ToggleCategory(ctx context.Context, category string) error {
	s.mu.Lock()
	s.state = s.state.WithCategoryToggled(category)
	needsFetch := s.state.DateRange.IsRanged() && s.state.IsActive(category)
	view := s.viewLocked()
	s.mu.Unlock()

	if needsFetch {
		return s.Refresh(ctx)
	}
	s.emitPapers(view)
	return nil
}

// SetSearch replaces the free-text query and re-filters.
func (s *Session) SetSearch(query string) {
	s.update(func(st domain.FilterState) domain.FilterState { return st.WithSearch(query) })
}

// SetQuickFilter selects a keyword group and re-filters.
func (s *Session) SetQuickFilter(key string) {
	s.update(func(st domain.FilterState) domain.FilterState { return st.WithQuickFilter(key) })
}

// SetDateRange switches the aggregation mode and refreshes when it changed.
func (s *Session) SetDateRange(ctx context.Context, r domain.DateRange) error {
	s.mu.Lock()
	changed := s.state.DateRange != r
	s.state = s.state.WithDateRange(r)
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh runs one aggregation cycle for the current state. The collection
// is replaced only once the run has settled; on failure the previous
// collection stays and the view reports the failure.
func (s *Session) Refresh(ctx context.Context) error {
	if s.source == nil {
		return errors.New("session: no paper source configured")
	}

	state := s.State()
	result, err := s.source.Aggregate(ctx, state)

	s.mu.Lock()
	if err != nil {
		s.failed = true
		s.empty = domain.EmptyFailed
	} else {
		s.failed = false
		s.papers = result.Papers
		s.empty = result.Empty
		s.runID = result.RunID
		s.updatedAt = result.StartedAt
	}
	view := s.viewLocked()
	s.mu.Unlock()

	if err != nil {
		s.warn("refresh failed", "error", err)
		s.emitPapers(view)
		return fmt.Errorf("refresh: %w", err)
	}

	s.debug("refresh applied", "run", result.RunID, "papers", len(result.Papers), "visible", len(view.Papers))
	s.emitPapers(view)
	return nil
}

// ToggleBookmark bookmarks or unbookmarks a paper from the current
// collection. It reports whether the paper is bookmarked afterwards.
func (s *Session) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	if s.bookmarks == nil {
		return false, errors.New("session: bookmarks unavailable")
	}

	paper, ok := s.Paper(id)
	if !ok {
		if !s.bookmarks.Contains(id) {
			return false, fmt.Errorf("toggle bookmark: unknown paper %q", id)
		}
		paper = domain.PaperRecord{ID: id}
	}

	on, err := s.bookmarks.Toggle(ctx, paper)
	if err != nil {
		return s.bookmarks.Contains(id), err
	}
	s.emitBookmarks()
	return on, nil
}

// WatchBookmarks reloads the set whenever another process rewrites the slot.
// It blocks until ctx is done.
func (s *Session) WatchBookmarks(ctx context.Context, watcher ports.SlotWatcher) error {
	if watcher == nil || s.bookmarks == nil {
		return nil
	}
	return watcher.Watch(ctx, s.bookmarks.name, func() {
		if s.bookmarks.Reload(ctx) {
			s.emitBookmarks()
		}
	})
}

func (s *Session) update(fn func(domain.FilterState) domain.FilterState) {
	s.mu.Lock()
	s.state = fn(s.state)
	view := s.viewLocked()
	s.mu.Unlock()
	s.emitPapers(view)
}

// Paper finds a record in the current, unfiltered collection.
func (s *Session) Paper(id string) (domain.PaperRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.papers, func(p domain.PaperRecord) bool { return p.ID == id })
	if idx < 0 {
		return domain.PaperRecord{}, false
	}
	return s.papers[idx], true
}

func (s *Session) viewLocked() View {
	visible := ApplyFilters(s.papers, s.state, s.quick)

	empty := domain.EmptyNone
	switch {
	case s.failed && len(visible) == 0:
		empty = domain.EmptyFailed
	case len(s.papers) == 0:
		empty = s.empty
	case len(visible) == 0:
		empty = domain.EmptyFiltered
	}

	message := empty.Message()
	if s.failed && empty != domain.EmptyFailed {
		message = domain.EmptyFailed.Message()
	}

	marks := map[string]bool{}
	if s.bookmarks != nil {
		for _, b := range s.bookmarks.List() {
			marks[b.ID] = true
		}
	}

	return View{
		Papers:     visible,
		Total:      len(s.papers),
		State:      s.state,
		Empty:      empty,
		Message:    message,
		Failed:     s.failed,
		RunID:      s.runID,
		UpdatedAt:  s.updatedAt,
		Bookmarked: marks,
	}
}

func (s *Session) emitPapers(view View) {
	if s.observer.PapersChanged != nil {
		s.observer.PapersChanged(view)
	}
}

func (s *Session) emitBookmarks() {
	if s.observer.BookmarksChanged != nil {
		s.observer.BookmarksChanged(s.Bookmarks())
	}
}

func (s *Session) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Session) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
