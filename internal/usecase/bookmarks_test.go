package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ArxivReader/internal/domain"
)

func TestBookmarkRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slots := newMemorySlots()
	store := NewBookmarkStore(slots, "", at(monday), nil)
	store.Load(ctx)

	p := paper("2401.00001", "cs.AI", "Scaling GPT Agents")
	added, err := store.Add(ctx, p)
	if err != nil || !added {
		t.Fatalf("add: added=%v err=%v", added, err)
	}
	if added, err := store.Add(ctx, p); err != nil || added {
		t.Fatalf("second add should be a no-op: added=%v err=%v", added, err)
	}

	reloaded := NewBookmarkStore(slots, DefaultBookmarkSlot, nil, nil)
	reloaded.Load(ctx)
	want := []domain.BookmarkRecord{domain.NewBookmark(p, monday)}
	if diff := cmp.Diff(want, reloaded.List()); diff != "" {
		t.Fatalf("reloaded set mismatch (-want +got):\n%s", diff)
	}

	removed, err := reloaded.Remove(ctx, p.ID)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	if reloaded.Contains(p.ID) {
		t.Fatalf("bookmark still present after remove")
	}

	again := NewBookmarkStore(slots, "", nil, nil)
	again.Load(ctx)
	if len(again.List()) != 0 {
		t.Fatalf("expected empty set after remove, got %+v", again.List())
	}
}

func TestBookmarkLoadTreatsCorruptionAsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for _, raw := range []string{"{not json", `{"id":"x"}`, ""} {
		slots := newMemorySlots()
		slots.data[DefaultBookmarkSlot] = []byte(raw)

		store := NewBookmarkStore(slots, "", nil, nil)
		store.Load(ctx)
		if got := store.List(); len(got) != 0 {
			t.Fatalf("expected empty set for %q, got %+v", raw, got)
		}
	}

	// absent slot
	store := NewBookmarkStore(newMemorySlots(), "", nil, nil)
	store.Load(ctx)
	if len(store.List()) != 0 {
		t.Fatalf("expected empty set for missing slot")
	}
}

func TestBookmarkLoadDropsDuplicatesAndBlankIDs(t *testing.T) {
	t.Parallel()

	slots := newMemorySlots()
	slots.data[DefaultBookmarkSlot] = []byte(`[{"id":"a","title":"A"},{"id":""},{"id":"a","title":"dup"},{"id":"b"}]`)

	store := NewBookmarkStore(slots, "", nil, nil)
	store.Load(context.Background())

	got := store.List()
	if len(got) != 2 || got[0].ID != "a" || got[0].Title != "A" || got[1].ID != "b" {
		t.Fatalf("unexpected set: %+v", got)
	}
}

func TestBookmarkFailedWriteKeepsMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slots := newMemorySlots()
	store := NewBookmarkStore(slots, "", at(monday), nil)

	slots.writeErr = errDiskFull
	_, err := store.Add(ctx, paper("1", "cs.AI", "t"))
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected write error, got %v", err)
	}
	if store.Contains("1") {
		t.Fatalf("failed write must not change the set")
	}

	if _, err := store.Add(ctx, domain.PaperRecord{Title: "no id"}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestBookmarkToggleAndReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slots := newMemorySlots()
	store := NewBookmarkStore(slots, "", at(monday), nil)
	p := paper("1", "cs.AI", "t")

	if on, err := store.Toggle(ctx, p); err != nil || !on {
		t.Fatalf("toggle on: on=%v err=%v", on, err)
	}
	if store.Reload(ctx) {
		t.Fatalf("reload of own write should report no change")
	}

	other := NewBookmarkStore(slots, "", at(monday), nil)
	other.Load(ctx)
	if _, err := other.Add(ctx, paper("2", "cs.LG", "u")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !store.Reload(ctx) || len(store.List()) != 2 {
		t.Fatalf("expected reload to pick up external write, got %+v", store.List())
	}

	if on, err := store.Toggle(ctx, p); err != nil || on {
		t.Fatalf("toggle off: on=%v err=%v", on, err)
	}
}

func TestBookmarkConcurrentTogglesAlternate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slots := newMemorySlots()
	store := NewBookmarkStore(slots, "", at(monday), nil)
	p := paper("1", "cs.AI", "t")

	const workers = 50
	var (
		wg  sync.WaitGroup
		ons atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			on, err := store.Toggle(ctx, p)
			if err != nil {
				t.Errorf("toggle: %v", err)
				return
			}
			if on {
				ons.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := ons.Load(); got != workers/2 {
		t.Fatalf("expected %d toggles to report on, got %d", workers/2, got)
	}
	if store.Contains(p.ID) {
		t.Fatalf("even number of toggles must leave the paper unbookmarked")
	}
	if string(slots.data[DefaultBookmarkSlot]) != "[]" {
		t.Fatalf("persisted set diverged: %s", slots.data[DefaultBookmarkSlot])
	}
}

func TestBookmarkToggleFailedRemoveStaysOn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slots := newMemorySlots()
	store := NewBookmarkStore(slots, "", at(monday), nil)
	p := paper("1", "cs.AI", "t")

	if on, err := store.Toggle(ctx, p); err != nil || !on {
		t.Fatalf("toggle on: on=%v err=%v", on, err)
	}

	slots.mu.Lock()
	slots.writeErr = errDiskFull
	slots.mu.Unlock()

	on, err := store.Toggle(ctx, p)
	if !errors.Is(err, errDiskFull) || !on {
		t.Fatalf("expected failed toggle to stay on: on=%v err=%v", on, err)
	}
	if !store.Contains(p.ID) {
		t.Fatalf("failed write must not change the set")
	}
}
