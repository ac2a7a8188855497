package store_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"bucketq/internal/store"
	"bucketq/internal/store/memory"
)

func TestPrefixEnd(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"pending/":  "pending0",
		"lock/a/":   "lock/a0",
		"a\xff":     "b",
		"\xff\xff":  "",
		"meta/base": "meta/basf",
	}
	for in, want := range cases {
		if got := store.PrefixEnd(in); got != want {
			t.Errorf("PrefixEnd(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestJoinAndSuffix(t *testing.T) {
	if got := store.Join("lock", "job-1", "", "/0001/"); got != "lock/job-1/0001" {
		t.Errorf("Expected 'lock/job-1/0001', got %q", got)
	}
	if got := store.Suffix("pending//abc", "pending"); got != "abc" {
		t.Errorf("Expected 'abc', got %q", got)
	}
}

func TestOpenMemoryWithPrefix(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, "mem://?prefix=jobs/main")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	if err := st.Put(ctx, "pending/x", "body"); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	ids, err := st.List(ctx, "pending/")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if !slices.Equal(ids, []string{"x"}) {
		t.Errorf("Expected [x], got %v", ids)
	}
	all, err := st.List(ctx, "")
	if err != nil {
		t.Fatalf("Failed to list all: %v", err)
	}
	if !slices.Equal(all, []string{"pending/x"}) {
		t.Errorf("Expected keys relative to the prefix, got %v", all)
	}
}

func TestOpenUnknownScheme(t *testing.T) {
	_, err := store.Open(context.Background(), "ftp://example.com/bucket")
	if !errors.Is(err, store.ErrUnknownScheme) {
		t.Fatalf("Expected ErrUnknownScheme, got %v", err)
	}
	_, err = store.Open(context.Background(), "no-scheme-here")
	if !errors.Is(err, store.ErrInvalidURL) {
		t.Fatalf("Expected ErrInvalidURL, got %v", err)
	}
}

func TestDeleteAllScoped(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	for _, k := range []string{"pending/a", "pending/b", "queued/a"} {
		if err := st.Put(ctx, k, "x"); err != nil {
			t.Fatalf("Failed to put %s: %v", k, err)
		}
	}
	if err := store.DeleteAll(ctx, st, "pending/"); err != nil {
		t.Fatalf("Failed to delete prefix: %v", err)
	}
	if st.Len() != 1 {
		t.Errorf("Expected only queued/a to remain, got %d keys", st.Len())
	}
}
