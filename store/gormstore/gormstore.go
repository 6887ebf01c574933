// Package gormstore is a sloth.Store over a GORM model. Scans resume from
// keyset cursors built out of the last row of the previous page.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/sloth"
)

type Store[T any] struct {
	db      *gorm.DB
	getters sloth.Getters[T]
}

// New returns a store over the table of T. getters must cover every ordering
// column used by the queries it will serve.
func New[T any](db *gorm.DB, getters sloth.Getters[T]) *Store[T] {
	return &Store[T]{db: db, getters: getters}
}

func (s *Store[T]) model(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T))
}

// Scan - implements sloth.Store.
func (s *Store[T]) Scan(ctx context.Context, q sloth.Query, req sloth.ScanRequest) (sloth.ScanResult[T], error) {
	db, err := filtered(s.model(ctx), q)
	if err != nil {
		return sloth.ScanResult[T]{}, err
	}

	if req.ResumeFrom != "" {
		cursor, decodeErr := sloth.DecodeKeysetCursor(req.ResumeFrom)
		if decodeErr != nil {
			return sloth.ScanResult[T]{}, fmt.Errorf("invalid resume cursor: %w", decodeErr)
		}
		db, err = sloth.NewCursorPager(req.Limit, cursor, q.Sort()...).Paginate(db)
	} else {
		db, err = sloth.NewCursorPager(req.Limit, sloth.NewOffsetCursor(req.Offset), q.Sort()...).Paginate(db)
	}
	if err != nil {
		return sloth.ScanResult[T]{}, err
	}

	var items []T
	if err = db.Find(&items).Error; err != nil {
		return sloth.ScanResult[T]{}, fmt.Errorf("failed to scan %s: %w", q.Kind(), err)
	}

	res := sloth.ScanResult[T]{Items: items}
	if len(items) > 0 {
		end, err := sloth.KeysetCursorAfter(q.Sort(), items[len(items)-1], s.getters)
		if err != nil {
			return sloth.ScanResult[T]{}, err
		}
		res.End = end
	}

	return res, nil
}

// Count - implements sloth.Store.
func (s *Store[T]) Count(ctx context.Context, q sloth.Query) (int64, error) {
	db, err := filtered(s.model(ctx), q)
	if err != nil {
		return 0, err
	}

	var n int64
	if err = db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", q.Kind(), err)
	}

	return n, nil
}

// First returns the first record of q or sloth.ErrNotFound.
func (s *Store[T]) First(ctx context.Context, q sloth.Query) (*T, error) {
	db, err := filtered(s.model(ctx), q)
	if err != nil {
		return nil, err
	}

	var items []T
	if err = q.Sort().Apply(db).Limit(1).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", q.Kind(), err)
	}
	if len(items) == 0 {
		return nil, sloth.ErrNotFound
	}

	return &items[0], nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (*T, error) {
	rec := new(T)
	if err := s.db.WithContext(ctx).First(rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sloth.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return rec, nil
}

func (s *Store[T]) Create(ctx context.Context, rec *T) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	return nil
}

// Save inserts or updates every column of rec.
func (s *Store[T]) Save(ctx context.Context, rec *T) error {
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return sloth.ErrNotFound
	}

	return nil
}

// filtered validates q and adds its filters to db. Column names are checked
// by Query.Validate before they are interpolated.
func filtered(db *gorm.DB, q sloth.Query) (*gorm.DB, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	for _, f := range q.Filters() {
		switch f.Op {
		case sloth.FilterEq:
			db = db.Where(fmt.Sprintf("%s = ?", f.Column), f.Value)
		case sloth.FilterHas:
			db = db.Where(hasClause(f.Column), hasPattern(f.Value))
		default:
			return nil, fmt.Errorf("unsupported filter operator '%s'", f.Op)
		}
	}

	return db, nil
}

var _ sloth.Store[struct{}] = (*Store[struct{}])(nil)
