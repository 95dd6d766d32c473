package storage

import "context"

const scopeSep = "/"

// Scoped namespaces every key of an underlying store under prefix, so that
// many carts can share one backend while each keeps the same fixed key.
type Scoped struct {
	base   Store
	prefix string
}

func NewScoped(base Store, scope ...string) *Scoped {
	prefix := ""
	for _, s := range scope {
		if s == "" {
			continue
		}
		prefix += s + scopeSep
	}
	return &Scoped{base: base, prefix: prefix}
}

func (s *Scoped) Key(key string) string { return s.prefix + key }

func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	return s.base.Get(ctx, s.Key(key))
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.base.Set(ctx, s.Key(key), value)
}

func (s *Scoped) Ping(ctx context.Context) error { return s.base.Ping(ctx) }
