package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attirely/storefront-backend/internal/catalog"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/kvstore"
)

func newTestService(t *testing.T) (Service, *catalog.Memory, kvstore.Store) {
	t.Helper()
	cat := catalog.NewMemory(catalog.Fixtures()...)
	store := kvstore.NewMemory()
	svc, err := NewService(store, cat)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, cat, store
}

func fixtureID(t *testing.T, cat *catalog.Memory, index int) uuid.UUID {
	t.Helper()
	products := catalog.Fixtures()
	if index >= len(products) {
		t.Fatalf("fixture index %d out of range", index)
	}
	return products[index].ID
}

func TestAddIsIdempotentAndNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, cat, _ := newTestService(t)
	first := fixtureID(t, cat, 0)
	second := fixtureID(t, cat, 1)

	if err := svc.Add(ctx, "sess-1", first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Add(ctx, "sess-1", second); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Add(ctx, "sess-1", first); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	ids, err := svc.List(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 unique entries, got %v", ids)
	}
	if ids[0] != second || ids[1] != first {
		t.Fatalf("expected newest first, got %v", ids)
	}
}

func TestAddRejectsUnknownProduct(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	err := svc.Add(context.Background(), "sess-1", uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleFlipsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, cat, _ := newTestService(t)
	id := fixtureID(t, cat, 0)

	liked, err := svc.Toggle(ctx, "sess-1", id)
	if err != nil || !liked {
		t.Fatalf("expected toggle on, got liked=%v err=%v", liked, err)
	}
	liked, err = svc.Toggle(ctx, "sess-1", id)
	if err != nil || liked {
		t.Fatalf("expected toggle off, got liked=%v err=%v", liked, err)
	}

	ids, err := svc.List(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty wishlist, got %v", ids)
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	t.Parallel()

	svc, cat, _ := newTestService(t)
	if err := svc.Remove(context.Background(), "sess-1", fixtureID(t, cat, 0)); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

func TestWatchDeliversExternalWrites(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, cat, _ := newTestService(t)
	id := fixtureID(t, cat, 0)

	updates, stop, err := svc.Watch(ctx, "sess-1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	if err := svc.Add(ctx, "sess-1", id); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case ids := <-updates:
		if len(ids) != 1 || ids[0] != id {
			t.Fatalf("unexpected update %v", ids)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for wishlist update")
	}
}

func TestCorruptStoredValueReadsAsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, store := newTestService(t)
	if err := store.Set(ctx, "wishlist:sess-1", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ids, err := svc.List(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("corrupt value must read as empty, got %v", ids)
	}
}
