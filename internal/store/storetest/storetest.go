// Package storetest holds the behaviour every store.ObjectStore backend
// must show. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"bucketq/internal/store"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.ObjectStore) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		st := initStore(t, newStore)
		_, ok, err := st.Get(context.Background(), "nope/missing")
		if err != nil {
			t.Fatalf("Failed to get missing key: %v", err)
		}
		if ok {
			t.Errorf("Expected missing key to report ok=false")
		}
		got, err := store.GetDefault(context.Background(), st, "nope/missing", "dflt")
		if err != nil {
			t.Fatalf("Failed to get default: %v", err)
		}
		if got != "dflt" {
			t.Errorf("Expected default 'dflt', got %q", got)
		}
	})

	t.Run("PutGetOverwrite", func(t *testing.T) {
		ctx := context.Background()
		st := initStore(t, newStore)
		mustPut(t, st, "pending/a", "one")
		mustPut(t, st, "pending/a", "two")
		body, ok, err := st.Get(ctx, "pending/a")
		if err != nil || !ok {
			t.Fatalf("Failed to get key: ok=%v err=%v", ok, err)
		}
		if body != "two" {
			t.Errorf("Expected body 'two', got %q", body)
		}
	})

	t.Run("EmptyBody", func(t *testing.T) {
		st := initStore(t, newStore)
		mustPut(t, st, "k/empty", "")
		body, ok, err := st.Get(context.Background(), "k/empty")
		if err != nil || !ok {
			t.Fatalf("Failed to get empty body: ok=%v err=%v", ok, err)
		}
		if body != "" {
			t.Errorf("Expected empty body, got %q", body)
		}
	})

	t.Run("ListSortedSuffixes", func(t *testing.T) {
		ctx := context.Background()
		st := initStore(t, newStore)
		for _, id := range []string{"c", "a", "b"} {
			mustPut(t, st, "pending/"+id, id)
		}
		mustPut(t, st, "pendingx/z", "other")
		mustPut(t, st, "queued/a", "a")

		got, err := st.List(ctx, "pending/")
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if want := []string{"a", "b", "c"}; !slices.Equal(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}

		got, err = st.List(ctx, "missing/")
		if err != nil {
			t.Fatalf("Failed to list empty prefix: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected empty listing, got %v", got)
		}
	})

	t.Run("ListOrderIsLexicographic", func(t *testing.T) {
		ctx := context.Background()
		st := initStore(t, newStore)
		stamps := []string{"00000000000000000010", "00000000000000000002", "00000000000000000100"}
		for _, s := range stamps {
			mustPut(t, st, "lock/job/"+s, "x")
		}
		got, err := st.List(ctx, "lock/job/")
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		want := []string{"00000000000000000002", "00000000000000000010", "00000000000000000100"}
		if !slices.Equal(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		ctx := context.Background()
		st := initStore(t, newStore)
		mustPut(t, st, "queued/x", "body")
		for i := 0; i < 2; i++ {
			if err := st.Delete(ctx, "queued/x"); err != nil {
				t.Fatalf("Failed to delete (round %d): %v", i, err)
			}
		}
		if _, ok, _ := st.Get(ctx, "queued/x"); ok {
			t.Errorf("Expected key to be gone after delete")
		}
	})

	t.Run("Drop", func(t *testing.T) {
		ctx := context.Background()
		st := initStore(t, newStore)
		for i := 0; i < 5; i++ {
			mustPut(t, st, fmt.Sprintf("meta/updates/%d", i), "{}")
		}
		mustPut(t, st, "meta/base", "{}")
		if err := st.Drop(ctx); err != nil {
			t.Fatalf("Failed to drop: %v", err)
		}
		got, err := st.List(ctx, "")
		if err != nil {
			t.Fatalf("Failed to list after drop: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no keys after drop, got %v", got)
		}
	})

	t.Run("InitIdempotent", func(t *testing.T) {
		st := initStore(t, newStore)
		if err := st.Init(context.Background()); err != nil {
			t.Fatalf("Failed to init twice: %v", err)
		}
	})

	t.Run("Prefixed", func(t *testing.T) {
		ctx := context.Background()
		raw := initStore(t, newStore)
		a := store.WithPrefix(raw, "tenant-a")
		b := store.WithPrefix(raw, "tenant-b")
		mustPut(t, a, "pending/1", "a1")
		mustPut(t, b, "pending/1", "b1")

		body, _, err := a.Get(ctx, "pending/1")
		if err != nil {
			t.Fatalf("Failed to get prefixed key: %v", err)
		}
		if body != "a1" {
			t.Errorf("Expected 'a1', got %q", body)
		}

		if err := a.Drop(ctx); err != nil {
			t.Fatalf("Failed to drop prefixed store: %v", err)
		}
		if ids, _ := a.List(ctx, "pending/"); len(ids) != 0 {
			t.Errorf("Expected tenant-a to be empty, got %v", ids)
		}
		if ids, _ := b.List(ctx, "pending/"); !slices.Equal(ids, []string{"1"}) {
			t.Errorf("Expected tenant-b to keep its key, got %v", ids)
		}
	})
}

func initStore(t *testing.T, newStore func(t *testing.T) store.ObjectStore) store.ObjectStore {
	t.Helper()
	st := newStore(t)
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	return st
}

func mustPut(t *testing.T, st store.ObjectStore, key, body string) {
	t.Helper()
	if err := st.Put(context.Background(), key, body); err != nil {
		t.Fatalf("Failed to put %s: %v", key, err)
	}
}
