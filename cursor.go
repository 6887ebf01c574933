package sloth

import (
	"encoding/base64"

	"gorm.io/gorm"
)

var _encoder = base64.RawURLEncoding

// Cursor is an opaque resume position produced by a Store. The Paginator only
// ever sees String(); the store that created the cursor is the only party that
// can turn the string back into a position.
type Cursor interface {
	String() string
	IsEmpty() bool
}

// SQLCursor is a Cursor that can position a GORM query.
type SQLCursor interface {
	Cursor
	Apply(*gorm.DB) *gorm.DB
	validate(orderings Orderings) error
}
