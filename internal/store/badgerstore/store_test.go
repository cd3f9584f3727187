package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/todos/internal/todo"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Options{InMemory: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	item := todo.NewItem("u1", "a", "Buy milk", "", 0)
	item.Translations["fr"] = "Acheter du lait"
	if err := store.PutItem(ctx, item); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.GetItem(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Buy milk" || got.Priority != 1 || got.Translations["fr"] != "Acheter du lait" {
		t.Fatalf("unexpected item: %+v", got)
	}

	if _, err := store.GetItem(ctx, "u1", "missing"); !errors.Is(err, todo.ErrItemNotFound) {
		t.Fatalf("unexpected error for missing item: got %v want %v", err, todo.ErrItemNotFound)
	}
}

func TestPutOverwrites(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	first := todo.NewItem("u1", "a", "Buy milk", "done", 5)
	first.Translations["de"] = "Milch kaufen"
	if err := store.PutItem(ctx, first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := store.PutItem(ctx, todo.NewItem("u1", "a", "Buy bread", "", 0)); err != nil {
		t.Fatalf("put second: %v", err)
	}

	got, err := store.GetItem(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Buy bread" || got.Status != "pending" || got.Priority != 1 || len(got.Translations) != 0 {
		t.Fatalf("expected full overwrite, got %+v", got)
	}
}

func TestQueryItemsStaysWithinOwner(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	for _, item := range []todo.Item{
		todo.NewItem("a", "1", "owner a", "", 0),
		todo.NewItem("ab", "1", "owner ab", "", 0),
		todo.NewItem("a", "2", "owner a again", "", 0),
	} {
		if err := store.PutItem(ctx, item); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	items, err := store.QueryItems(ctx, "a")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(items) != 2 || items[0].ItemID != "1" || items[1].ItemID != "2" {
		t.Fatalf("unexpected items: %+v", items)
	}

	empty, err := store.QueryItems(ctx, "nobody")
	if err != nil {
		t.Fatalf("query empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestUpdateItemMergesFields(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutItem(ctx, todo.NewItem("u1", "a", "Buy milk", "", 2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	done := "done"
	completed := true
	updated, err := store.UpdateItem(ctx, "u1", "a", todo.Patch{Status: &done, Completed: &completed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "done" || !updated.Completed || updated.Priority != 2 || updated.Description != "Buy milk" {
		t.Fatalf("unexpected updated item: %+v", updated)
	}

	if _, err := store.UpdateItem(ctx, "u1", "missing", todo.Patch{Status: &done}); !errors.Is(err, todo.ErrItemNotFound) {
		t.Fatalf("unexpected error for missing item: %v", err)
	}
}

func TestSetTranslationTouchesOnlyOneLanguage(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	item := todo.NewItem("u1", "a", "Hello", "", 0)
	item.Translations["fr"] = "Bonjour"
	if err := store.PutItem(ctx, item); err != nil {
		t.Fatalf("put: %v", err)
	}

	var wg sync.WaitGroup
	for _, lang := range []string{"de", "es", "it"} {
		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			if err := store.SetTranslation(ctx, "u1", "a", lang, "text-"+lang); err != nil {
				t.Errorf("set %s: %v", lang, err)
			}
		}(lang)
	}
	wg.Wait()

	got, err := store.GetItem(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := map[string]string{"fr": "Bonjour", "de": "text-de", "es": "text-es", "it": "text-it"}
	if fmt.Sprint(got.Translations) != fmt.Sprint(want) {
		t.Fatalf("unexpected translations: got %v want %v", got.Translations, want)
	}
	if got.Description != "Hello" || got.Status != "pending" {
		t.Fatalf("other fields changed: %+v", got)
	}

	if err := store.SetTranslation(ctx, "u1", "missing", "de", "x"); !errors.Is(err, todo.ErrItemNotFound) {
		t.Fatalf("unexpected error for missing item: %v", err)
	}
}

func TestOwnerPrefixIsLengthPrefixed(t *testing.T) {
	t.Parallel()

	if bytes.HasPrefix(itemKey("ab", "1"), ownerPrefix("a")) {
		t.Fatalf("owner ab must not fall under owner a's prefix")
	}
	if !bytes.HasPrefix(itemKey("a", "b1"), ownerPrefix("a")) {
		t.Fatalf("item key must start with its owner prefix")
	}
}

var _ todo.Store = (*Store)(nil)
