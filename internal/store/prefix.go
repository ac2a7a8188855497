package store

import (
	"context"
	"strings"
)

type prefixed struct {
	inner  ObjectStore
	prefix string
}

var _ ObjectStore = (*prefixed)(nil)

// WithPrefix scopes s under prefix. Keys are joined with "/" and Drop only
// removes keys inside the prefix.
func WithPrefix(s ObjectStore, prefix string) ObjectStore {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix + "/"}
}

func (p *prefixed) Init(ctx context.Context) error { return p.inner.Init(ctx) }

func (p *prefixed) List(ctx context.Context, prefix string) ([]string, error) {
	return p.inner.List(ctx, p.prefix+prefix)
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key, body string) error {
	return p.inner.Put(ctx, p.prefix+key, body)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Drop(ctx context.Context) error {
	return DeleteAll(ctx, p.inner, p.prefix)
}

func (p *prefixed) Close() error { return p.inner.Close() }
