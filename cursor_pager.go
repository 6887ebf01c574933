package sloth

import (
	"fmt"
	"slices"

	"gorm.io/gorm"
)

// CursorPager positions one bounded GORM scan: ordering, start position and
// limit. Stores build one per ScanRequest.
type CursorPager[CursorType SQLCursor] struct {
	limit  int
	cursor CursorType
	sort   Orderings
}

func NewCursorPager[CursorType SQLCursor](limit int, cursor CursorType, orderBy ...OrderBy) *CursorPager[CursorType] {
	return (&CursorPager[CursorType]{cursor: cursor}).WithLimit(limit).WithSort(orderBy...)
}

// WithLimit sets the maximum number of returned records. It is not
// normalised: the page size is owned by the Paginator.
func (c *CursorPager[CursorType]) WithLimit(limit int) *CursorPager[CursorType] {
	if c == nil {
		c = new(CursorPager[CursorType])
	}

	c.limit = limit

	return c
}

// WithSort appends orderings. A column that is already present is moved to
// the end with its new direction.
func (c *CursorPager[CursorType]) WithSort(orderBy ...OrderBy) *CursorPager[CursorType] {
	if c == nil {
		c = new(CursorPager[CursorType])
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(c.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})
		if idx != -1 {
			c.sort = slices.Delete(c.sort, idx, idx+1)
		}

		c.sort = append(c.sort, o)
	}

	return c
}

// Paginate applies ordering, cursor and limit to db.
func (c *CursorPager[CursorType]) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = c.sort.Apply(db)
	db = c.cursor.Apply(db)

	return db.Limit(c.limit), nil
}

func (c *CursorPager[_]) validate() error {
	if c == nil {
		return fmt.Errorf("cursor pager is nil")
	}

	if c.limit <= 0 {
		return fmt.Errorf("non-positive limit %d", c.limit)
	}

	if err := c.sort.validate(); err != nil {
		return err
	}

	return c.cursor.validate(c.sort)
}
