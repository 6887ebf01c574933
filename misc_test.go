package sloth

import (
	"context"
	"fmt"
	"slices"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db, mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db, mock, nil
}

// sliceStore serves a fixed slice with offset cursors and records every
// request it receives.
type sliceStore struct {
	items    []int
	requests []ScanRequest
	counts   int
	scanErr  error
	countErr error
}

func newSliceStore(n int) *sliceStore {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}

	return &sliceStore{items: items}
}

func (s *sliceStore) Scan(_ context.Context, _ Query, req ScanRequest) (ScanResult[int], error) {
	s.requests = append(s.requests, req)
	if s.scanErr != nil {
		return ScanResult[int]{}, s.scanErr
	}

	start := req.Offset
	if req.ResumeFrom != "" {
		c, err := DecodeOffsetCursor(req.ResumeFrom)
		if err != nil {
			return ScanResult[int]{}, err
		}
		start = c.Offset()
	}

	start = min(start, len(s.items))
	end := min(start+req.Limit, len(s.items))
	page := slices.Clone(s.items[start:end])

	return ScanResult[int]{Items: page, End: NewOffsetCursor(end)}, nil
}

func (s *sliceStore) Count(context.Context, Query) (int64, error) {
	s.counts++
	if s.countErr != nil {
		return 0, s.countErr
	}

	return int64(len(s.items)), nil
}

func (s *sliceStore) lastRequest() ScanRequest {
	return s.requests[len(s.requests)-1]
}

// mapCache is a minimal Cache and Swapper used by the root package tests.
type mapCache struct {
	data     map[string][]byte
	getErr   error
	setErr   error
	sets     int
	onSwap   func()
	swapFail int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}

	v, ok := c.data[key]
	return slices.Clone(v), ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte) error {
	if c.setErr != nil {
		return c.setErr
	}

	c.sets++
	c.data[key] = slices.Clone(value)
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}

	return nil
}

func (c *mapCache) CompareAndSwap(_ context.Context, key string, old, new []byte) (bool, error) {
	if c.onSwap != nil {
		hook := c.onSwap
		c.onSwap = nil
		hook()
	}
	if c.swapFail > 0 {
		c.swapFail--
		return false, nil
	}

	cur, ok := c.data[key]
	switch {
	case old == nil && ok:
		return false, nil
	case old != nil && (!ok || string(cur) != string(old)):
		return false, nil
	}

	c.data[key] = slices.Clone(new)
	return true, nil
}

// plainCache hides the Swapper implementation of a mapCache.
type plainCache struct{ inner *mapCache }

func (c plainCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, key)
}

func (c plainCache) Set(ctx context.Context, key string, value []byte) error {
	return c.inner.Set(ctx, key, value)
}

func (c plainCache) Delete(ctx context.Context, keys ...string) error {
	return c.inner.Delete(ctx, keys...)
}

var errBoom = fmt.Errorf("boom")
