package sloth

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// KeysetCursor resumes a scan right after a known row. It stores one
// (column, operator, value) triple per ordering column:
//
//	[(C1, O1, V1), (C2, O2, V2) ... (Cn, On, Vn)]
//
// The last ordering column must be unique, otherwise rows sharing the same
// sort key can be skipped or repeated.
type KeysetCursor struct {
	elements []CursorElement
}

func NewKeysetCursor(elements ...CursorElement) *KeysetCursor {
	return &KeysetCursor{elements: elements}
}

// DecodeKeysetCursor parses a token produced by KeysetCursor.String. An empty
// token decodes to a nil cursor.
func DecodeKeysetCursor(token string) (*KeysetCursor, error) {
	if token == "" {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded cursor: %w", err)
	}

	var elems []CursorElement
	if err = json.Unmarshal(jsonData, &elems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json encoded cursor: %w", err)
	}

	return &KeysetCursor{elements: elems}, nil
}

// String - implements Cursor.
func (c *KeysetCursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	raw, err := json.Marshal(c.elements)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, raw); err != nil {
		panic(fmt.Errorf("cannot compact cursor value: %w", err))
	}

	return _encoder.EncodeToString(buf.Bytes())
}

// IsEmpty - implements Cursor.
func (c *KeysetCursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

// Apply - implements SQLCursor.
func (c *KeysetCursor) Apply(db *gorm.DB) *gorm.DB {
	exp := c.toDNF().toGORMExpression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

// toDNF inflates the elements into
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
//
// which selects exactly the rows ordered after the remembered one.
func (c *KeysetCursor) toDNF() tDNF {
	if c.IsEmpty() {
		return nil
	}

	dnf := make(tDNF, 0, len(c.elements))
	for i := range c.elements {
		disjunct := lo.Map(c.elements[:i], func(item CursorElement, _ int) tConjunct {
			return item.equalityConjunct()
		})
		disjunct = append(disjunct, tConjunct(c.elements[i]))

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// validate - implements SQLCursor. The cursor must mirror the orderings
// column by column.
func (c *KeysetCursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return fmt.Errorf("cursor column number mismatch")
	}

	for i, cond := range c.elements {
		orderBy := orderings[i]

		if cond.Column != orderBy.Column {
			return fmt.Errorf("unexpected cursor column '%s'", cond.Column)
		}

		if !cond.Operator.Valid() {
			return fmt.Errorf("invalid cursor operator '%s'", cond.Operator)
		} else if cond.Operator.ForOrdering() != orderBy.Direction {
			return fmt.Errorf("unexpected cursor operator '%s'", cond.Operator)
		}
	}

	return nil
}

var _ SQLCursor = (*KeysetCursor)(nil)

// KeysetCursorAfter builds the cursor positioned after last, reading every
// ordering column through getters.
func KeysetCursorAfter[T any](orderings Orderings, last T, getters Getters[T]) (*KeysetCursor, error) {
	ret := &KeysetCursor{elements: make([]CursorElement, 0, len(orderings))}
	for _, orderBy := range orderings {
		getter, ok := getters[orderBy.Column]
		if !ok {
			return nil, fmt.Errorf("cannot find getter for column '%s' met in ordering", orderBy.Column)
		}

		ret.elements = append(ret.elements, CursorElement{
			Column:   orderBy.Column,
			Value:    getter(last),
			Operator: orderBy.Direction.ForOperator(),
		})
	}

	return ret, nil
}

// CursorElement is one (c, v, o) triple: the column, the value of that
// column in the last row, and the operator that selects rows after it.
type CursorElement struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func (c CursorElement) equalityConjunct() tConjunct {
	return tConjunct{
		Column:   c.Column,
		Value:    c.Value,
		Operator: operatorEq,
	}
}
