// Package memstore is a map-backed sloth.Store. Filters and orderings are
// evaluated through the record getters, and scans resume from
// sloth.OffsetCursor tokens.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/Alp4ka/sloth"
)

var ErrExists = errors.New("record already exists")

type Store[T any] struct {
	mu      sync.RWMutex
	records map[string]T
	key     func(T) string
	getters sloth.Getters[T]
}

// New returns an empty store. key extracts the primary key of a record.
func New[T any](key func(T) string, getters sloth.Getters[T]) *Store[T] {
	return &Store[T]{
		records: make(map[string]T),
		key:     key,
		getters: getters,
	}
}

// Scan - implements sloth.Store.
func (s *Store[T]) Scan(_ context.Context, q sloth.Query, req sloth.ScanRequest) (sloth.ScanResult[T], error) {
	start := req.Offset
	if req.ResumeFrom != "" {
		cursor, err := sloth.DecodeOffsetCursor(req.ResumeFrom)
		if err != nil {
			return sloth.ScanResult[T]{}, fmt.Errorf("invalid resume cursor: %w", err)
		}
		start = cursor.Offset()
	}
	if start < 0 || req.Limit <= 0 {
		return sloth.ScanResult[T]{}, fmt.Errorf("invalid scan window offset=%d limit=%d", start, req.Limit)
	}

	s.mu.RLock()
	rows, err := s.selectLocked(q)
	s.mu.RUnlock()
	if err != nil {
		return sloth.ScanResult[T]{}, err
	}

	start = min(start, len(rows))
	end := min(start+req.Limit, len(rows))

	return sloth.ScanResult[T]{
		Items: slices.Clone(rows[start:end]),
		End:   sloth.NewOffsetCursor(end),
	}, nil
}

// Count - implements sloth.Store.
func (s *Store[T]) Count(_ context.Context, q sloth.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.filterLocked(q)
	if err != nil {
		return 0, err
	}

	return int64(len(rows)), nil
}

// First returns the first record of q or sloth.ErrNotFound.
func (s *Store[T]) First(_ context.Context, q sloth.Query) (*T, error) {
	s.mu.RLock()
	rows, err := s.selectLocked(q)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sloth.ErrNotFound
	}

	return &rows[0], nil
}

func (s *Store[T]) Get(_ context.Context, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, sloth.ErrNotFound
	}

	return &rec, nil
}

func (s *Store[T]) Create(_ context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.key(*rec)
	if _, ok := s.records[id]; ok {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	s.records[id] = *rec

	return nil
}

// Save inserts or replaces rec.
func (s *Store[T]) Save(_ context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.key(*rec)] = *rec

	return nil
}

func (s *Store[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return sloth.ErrNotFound
	}
	delete(s.records, id)

	return nil
}

func (s *Store[T]) selectLocked(q sloth.Query) ([]T, error) {
	rows, err := s.filterLocked(q)
	if err != nil {
		return nil, err
	}

	if err = s.sort(rows, q.Sort()); err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *Store[T]) filterLocked(q sloth.Query) ([]T, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filters := q.Filters()
	for _, f := range filters {
		if _, ok := s.getters[f.Column]; !ok {
			return nil, fmt.Errorf("no getter for filter column '%s'", f.Column)
		}
	}

	var matchErr error
	rows := lo.Filter(lo.Values(s.records), func(rec T, _ int) bool {
		for _, f := range filters {
			ok, err := s.match(rec, f)
			if err != nil {
				matchErr = err
				return false
			}
			if !ok {
				return false
			}
		}
		return true
	})
	if matchErr != nil {
		return nil, matchErr
	}

	return rows, nil
}

func (s *Store[T]) match(rec T, f sloth.Filter) (bool, error) {
	v := s.getters[f.Column](rec)

	switch f.Op {
	case sloth.FilterEq:
		c, err := compare(v, f.Value)
		return c == 0, err
	case sloth.FilterHas:
		return contains(v, f.Value)
	default:
		return false, fmt.Errorf("unsupported filter operator '%s'", f.Op)
	}
}

func (s *Store[T]) sort(rows []T, orderings sloth.Orderings) error {
	for _, o := range orderings {
		if _, ok := s.getters[o.Column]; !ok {
			return fmt.Errorf("no getter for ordering column '%s'", o.Column)
		}
	}

	var sortErr error
	slices.SortStableFunc(rows, func(a, b T) int {
		for _, o := range orderings {
			get := s.getters[o.Column]
			c, err := compare(get(a), get(b))
			if err != nil {
				sortErr = err
				return 0
			}
			if c == 0 {
				continue
			}
			if o.Direction == sloth.DirectionDESC {
				return -c
			}
			return c
		}
		return 0
	})

	return sortErr
}

var _ sloth.Store[struct{}] = (*Store[struct{}])(nil)
