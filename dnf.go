package sloth

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

type (
	tConjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF is an OR of ANDs:
	//
	//	(A11 AND A12 ...) OR (A21 AND A22 ...) OR ...
	//
	// where every Aij is "Column Operator Value".
	tDNF []tDisjunct
)

// toGORMExpression renders "Column Operator ?" with the value bound to the
// placeholder.
func (c tConjunct) toGORMExpression() clause.Expression {
	return clause.Expr{
		SQL:  fmt.Sprintf("%s %s ?", c.Column, c.Operator),
		Vars: []any{parseAnyValue(c.Value)},
	}
}

// parseAnyValue restores time.Time values that became strings while the
// cursor travelled through JSON.
func parseAnyValue(v any) any {
	fromBytes := func(raw []byte) any {
		var ts time.Time
		if err := ts.UnmarshalText(raw); err == nil {
			return ts
		}

		return v
	}

	switch vt := v.(type) {
	case string:
		return fromBytes([]byte(vt))
	case []byte:
		return fromBytes(vt)
	default:
		return v
	}
}

func (d tDisjunct) toGORMExpression() clause.Expression {
	switch len(d) {
	case 0:
		return nil
	case 1:
		return d[0].toGORMExpression()
	}

	exprs := make([]clause.Expression, 0, len(d))
	for _, conjunct := range d {
		exprs = append(exprs, conjunct.toGORMExpression())
	}

	return clause.And(exprs...)
}

func (d tDNF) toGORMExpression() clause.Expression {
	exprs := make([]clause.Expression, 0, len(d))
	for _, disjunct := range d {
		if expr := disjunct.toGORMExpression(); expr != nil {
			exprs = append(exprs, expr)
		}
	}

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.Or(exprs...)
	}
}
