package rediscache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sloth"
)

func newTestCache(t *testing.T, prefix string) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	return New(rc, prefix), srv
}

func Test_Cache_Key(t *testing.T) {
	assert.Equal(t, "sloth:NS", New(nil, "sloth").Key("NS"))
	assert.Equal(t, "NS", New(nil, "").Key("NS"))
}

func Test_Cache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "sloth")

	_, ok, err := c.Get(ctx, "NS")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "NS", []byte(`{"2":"abc"}`)))
	require.NoError(t, c.Set(ctx, "NS_COUNT", []byte("12")))

	raw, err := srv.Get("sloth:NS")
	require.NoError(t, err)
	assert.Equal(t, `{"2":"abc"}`, raw)
	assert.Zero(t, srv.TTL("sloth:NS"))

	got, ok, err := c.Get(ctx, "NS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"2":"abc"}`, string(got))

	require.NoError(t, sloth.Clear(ctx, c, "NS"))
	assert.False(t, srv.Exists("sloth:NS"))
	assert.False(t, srv.Exists("sloth:NS_COUNT"))

	require.NoError(t, c.Delete(ctx))
}

func Test_Cache_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "")

	swapped, err := c.CompareAndSwap(ctx, "k", nil, []byte("v1"))
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = c.CompareAndSwap(ctx, "k", nil, []byte("v2"))
	require.NoError(t, err)
	assert.False(t, swapped, "key exists")

	swapped, err = c.CompareAndSwap(ctx, "k", []byte("stale"), []byte("v2"))
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = c.CompareAndSwap(ctx, "k", []byte("v1"), []byte("v2"))
	require.NoError(t, err)
	assert.True(t, swapped)

	raw, err := srv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", raw)

	swapped, err = c.CompareAndSwap(ctx, "absent", []byte("v1"), []byte("v2"))
	require.NoError(t, err)
	assert.False(t, swapped)
}

func Test_Cache_ServerDown(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "")
	srv.Close()

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "k", []byte("v")))
}

func Test_Cache_NilClient(t *testing.T) {
	ctx := context.Background()
	c := New(nil, "")

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "k", nil))
	assert.Error(t, c.Delete(ctx, "k"))
	_, err = c.CompareAndSwap(ctx, "k", nil, nil)
	assert.Error(t, err)
}

func Test_Connect(t *testing.T) {
	srv := miniredis.RunT(t)

	rc, err := Connect(context.Background(), Options{Addr: srv.Addr()})
	require.NoError(t, err)
	assert.NoError(t, rc.Close())

	_, err = Connect(context.Background(), Options{})
	assert.Error(t, err)
}

func Test_Cache_WithPaginator(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "blog")

	store := &countingStore{n: 7}
	q := sloth.NewQuery("item", sloth.Asc("id"))

	p, err := sloth.NewPaginator[int](ctx, store, c, q, 3, "items", sloth.WithCompareAndSwap(1))
	require.NoError(t, err)

	page, err := p.FetchPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, page)
	assert.True(t, srv.Exists("blog:items"))

	again, err := sloth.NewPaginator[int](ctx, store, c, q, 3, "items")
	require.NoError(t, err)
	page, err = again.FetchPage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, page)
	assert.Equal(t, 1, again.Stats().CursorScans)
}

type countingStore struct{ n int }

func (s *countingStore) Scan(_ context.Context, _ sloth.Query, req sloth.ScanRequest) (sloth.ScanResult[int], error) {
	start := req.Offset
	if req.ResumeFrom != "" {
		c, err := sloth.DecodeOffsetCursor(req.ResumeFrom)
		if err != nil {
			return sloth.ScanResult[int]{}, err
		}
		start = c.Offset()
	}

	var items []int
	for i := start; i < s.n && len(items) < req.Limit; i++ {
		items = append(items, i)
	}

	return sloth.ScanResult[int]{Items: items, End: sloth.NewOffsetCursor(start + len(items))}, nil
}

func (s *countingStore) Count(context.Context, sloth.Query) (int64, error) {
	return int64(s.n), nil
}
