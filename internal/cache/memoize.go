package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Memoized wraps a deterministic fetch function so that repeated calls
// with logically-equivalent arguments return the cached result until a tag
// they depend on is invalidated.
type Memoized[A any, T any] struct {
	cache Cache
	name  string
	fn    func(ctx context.Context, args A) (T, error)
	tags  func(args A) []string
}

// Memoize builds a tagged cache wrapper around fn. name must be unique per
// wrapped function — it namespaces the key space. tags derives the
// invalidation tags from the call arguments, so the tag set always matches
// the logical scope of the data being fetched.
func Memoize[A any, T any](
	c Cache,
	name string,
	fn func(ctx context.Context, args A) (T, error),
	tags func(args A) []string,
) *Memoized[A, T] {
	return &Memoized[A, T]{cache: c, name: name, fn: fn, tags: tags}
}

// Call returns the cached value for args or fetches, caches, and returns
// it. Fetch errors are returned without caching.
func (m *Memoized[A, T]) Call(ctx context.Context, args A) (T, error) {
	key := m.key(args)

	if value, ok := m.cache.Get(ctx, key); ok {
		if typed, ok := value.(T); ok {
			return typed, nil
		}
	}

	result, err := m.fn(ctx, args)
	if err != nil {
		var zero T
		return zero, err
	}

	m.cache.Set(ctx, key, result, m.tags(args))
	return result, nil
}

// key builds the cache key from the function identity and a canonical
// serialization of the arguments. encoding/json writes struct fields in
// declaration order and map keys sorted, so logically-equal argument
// values always produce the same key.
func (m *Memoized[A, T]) key(args A) string {
	encoded, err := json.Marshal(args)
	if err != nil {
		// Non-serializable args fall back to the fmt representation;
		// still deterministic for the argument structs used here.
		encoded = []byte(fmt.Sprintf("%+v", args))
	}
	return "memo:" + m.name + ":" + string(encoded)
}
