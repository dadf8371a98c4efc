package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	c.Set(ctx, "k1", "v1", []string{"global:products"})

	value, ok := c.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", value)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestDeleteByTagsEvictsOnlyMatching(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	c.Set(ctx, "a", 1, []string{"user:products:u1"})
	c.Set(ctx, "b", 2, []string{"user:products:u2"})
	c.Set(ctx, "c", 3, []string{"user:products:u1", "global:countries"})

	c.DeleteByTags(ctx, []string{"user:products:u1"})

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.True(t, ok)
}

func TestSetReplacesTagIndex(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	c.Set(ctx, "k", 1, []string{"user:products:u1"})
	c.Set(ctx, "k", 2, []string{"user:products:u2"})

	// The old tag no longer covers the key.
	c.DeleteByTags(ctx, []string{"user:products:u1"})
	value, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 2, value)

	c.DeleteByTags(ctx, []string{"user:products:u2"})
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	c.Set(ctx, "k", 1, []string{"global:products"})
	c.Flush(ctx)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	// Tag index is rebuilt from scratch; a new entry under the same tag
	// still evicts cleanly.
	c.Set(ctx, "k", 2, []string{"global:products"})
	c.DeleteByTags(ctx, []string{"global:products"})
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestConcreteTags(t *testing.T) {
	opts := RevalidateOptions{Tag: TagProducts, UserID: "u1", ID: "p1"}
	assert.Equal(t, []string{
		"global:products",
		"user:products:u1",
		"id:products:p1",
	}, opts.ConcreteTags())

	opts = RevalidateOptions{Tag: TagProductViews}
	assert.Equal(t, []string{"global:productViews"}, opts.ConcreteTags())
}

func TestMemoizeCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	type args struct {
		UserID string `json:"user_id"`
	}

	calls := 0
	m := Memoize(c, "test.fn",
		func(ctx context.Context, a args) (int, error) {
			calls++
			return calls, nil
		},
		func(a args) []string {
			return []string{UserTag(TagProducts, a.UserID)}
		},
	)

	v, err := m.Call(ctx, args{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Second call with equal args hits the cache.
	v, err = m.Call(ctx, args{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	// Different args miss.
	_, err = m.Call(ctx, args{UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// Invalidating the user's scope forces a recompute.
	Revalidate(ctx, c, RevalidateOptions{Tag: TagProducts, UserID: "u1"})
	v, err = m.Call(ctx, args{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, calls)
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	type args struct{}

	calls := 0
	m := Memoize(c, "test.failing",
		func(ctx context.Context, a args) (string, error) {
			calls++
			if calls == 1 {
				return "", assert.AnError
			}
			return "recovered", nil
		},
		func(a args) []string { return []string{GlobalTag(TagProducts)} },
	)

	_, err := m.Call(ctx, args{})
	require.Error(t, err)

	v, err := m.Call(ctx, args{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
}
