package sloth

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// OffsetCursor is a pseudo cursor for stores that can only skip rows. It
// remembers how many rows of the scan were already consumed.
type OffsetCursor struct {
	offset int
}

func NewOffsetCursor(offset int) *OffsetCursor {
	return &OffsetCursor{offset: offset}
}

// DecodeOffsetCursor parses a token produced by OffsetCursor.String. An empty
// token decodes to a nil cursor.
func DecodeOffsetCursor(token string) (*OffsetCursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded offset cursor: %w", err)
	}

	offset, err := strconv.Atoi(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode offset cursor value: %w", err)
	}
	if offset < 0 {
		return nil, fmt.Errorf("negative offset cursor value %d", offset)
	}

	return &OffsetCursor{offset: offset}, nil
}

// String - implements Cursor.
func (p *OffsetCursor) String() string {
	if p.IsEmpty() {
		return ""
	}

	return _encoder.EncodeToString([]byte(strconv.Itoa(p.offset)))
}

// IsEmpty - implements Cursor.
func (p *OffsetCursor) IsEmpty() bool {
	return p == nil || p.offset == 0
}

// Apply - implements SQLCursor.
func (p *OffsetCursor) Apply(db *gorm.DB) *gorm.DB {
	if p.IsEmpty() {
		return db
	}

	return db.Offset(p.offset)
}

// Offset returns the number of rows to skip.
func (p *OffsetCursor) Offset() int {
	if p == nil {
		return 0
	}

	return p.offset
}

// validate - implements SQLCursor.
func (p *OffsetCursor) validate(_ Orderings) error {
	if p != nil && p.offset < 0 {
		return fmt.Errorf("negative offset %d", p.offset)
	}

	return nil
}

var _ SQLCursor = (*OffsetCursor)(nil)
