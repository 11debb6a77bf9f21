package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/ports"
)

// DefaultBookmarkSlot is the slot name holding the serialized bookmark set.
const DefaultBookmarkSlot = "bookmarks"

// BookmarkStore owns the persisted set of bookmarked papers. Every mutation
// writes the full set through to the slot.
type BookmarkStore struct {
	mu     sync.Mutex
	slot   ports.SlotStore
	name   string
	items  []domain.BookmarkRecord
	now    func() time.Time
	logger *slog.Logger
}

// NewBookmarkStore binds the store to a named slot. The set starts empty
// until Load is called.
func NewBookmarkStore(slot ports.SlotStore, name string, now func() time.Time, log *slog.Logger) *BookmarkStore {
	if name == "" {
		name = DefaultBookmarkSlot
	}
	if now == nil {
		now = time.Now
	}
	return &BookmarkStore{slot: slot, name: name, now: now, logger: log}
}

// Load reads the persisted set. Absent or corrupt data yields an empty set.
func (s *BookmarkStore) Load(ctx context.Context) {
	items := s.read(ctx)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Reload re-reads the slot and reports whether the set differs from memory.
func (s *BookmarkStore) Reload(ctx context.Context) bool {
	items := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.EqualFunc(items, s.items, sameBookmark) {
		return false
	}
	s.items = items
	return true
}

// Contains reports whether id is bookmarked.
func (s *BookmarkStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// List returns a copy of the set in insertion order.
func (s *BookmarkStore) List() []domain.BookmarkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Add bookmarks the paper. It is a no-op when the id is already present.
func (s *BookmarkStore) Add(ctx context.Context, paper domain.PaperRecord) (bool, error) {
	if paper.ID == "" {
		return false, errors.New("bookmark: paper id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(paper.ID) >= 0 {
		return false, nil
	}
	return s.addLocked(ctx, paper)
}

// Remove drops id from the set; unknown ids are ignored.
func (s *BookmarkStore) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	return s.removeLocked(ctx, idx)
}

// Toggle adds the paper when absent and removes it otherwise, as one
// read-modify-write. It reports whether the paper is bookmarked afterwards.
func (s *BookmarkStore) Toggle(ctx context.Context, paper domain.PaperRecord) (bool, error) {
	if paper.ID == "" {
		return false, errors.New("bookmark: paper id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(paper.ID); idx >= 0 {
		if _, err := s.removeLocked(ctx, idx); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := s.addLocked(ctx, paper); err != nil {
		return false, err
	}
	return true, nil
}

func (s *BookmarkStore) addLocked(ctx context.Context, paper domain.PaperRecord) (bool, error) {
	next := append(slices.Clone(s.items), domain.NewBookmark(paper, s.now().UTC()))
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.items = next
	return true, nil
}

func (s *BookmarkStore) removeLocked(ctx context.Context, idx int) (bool, error) {
	next := slices.Delete(slices.Clone(s.items), idx, idx+1)
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.items = next
	return true, nil
}

func sameBookmark(a, b domain.BookmarkRecord) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Link == b.Link &&
		a.Category == b.Category && a.AddedAt.Equal(b.AddedAt)
}

func (s *BookmarkStore) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(b domain.BookmarkRecord) bool { return b.ID == id })
}

func (s *BookmarkStore) persist(ctx context.Context, items []domain.BookmarkRecord) error {
	if s.slot == nil {
		return nil
	}
	if items == nil {
		items = []domain.BookmarkRecord{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal bookmarks: %w", err)
	}
	if err := s.slot.Write(ctx, s.name, payload); err != nil {
		return fmt.Errorf("persist bookmarks: %w", err)
	}
	return nil
}

func (s *BookmarkStore) read(ctx context.Context) []domain.BookmarkRecord {
	if s.slot == nil {
		return nil
	}

	raw, err := s.slot.Read(ctx, s.name)
	if err != nil {
		if !errors.Is(err, ports.ErrSlotNotFound) {
			s.warn("bookmark slot unreadable, starting empty", "slot", s.name, "error", err)
		}
		return nil
	}

	var decoded []domain.BookmarkRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		s.warn("bookmark slot corrupted, starting empty", "slot", s.name, "error", err)
		return nil
	}

	items := make([]domain.BookmarkRecord, 0, len(decoded))
	seen := map[string]struct{}{}
	for _, b := range decoded {
		if b.ID == "" {
			continue
		}
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		items = append(items, b)
	}
	return items
}

func (s *BookmarkStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
