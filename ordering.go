package sloth

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction is the sort direction of one ordering column.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string    `json:"c"`
		Direction Direction `json:"d"`
	}

	ColumnAlias = string

	// ColumnMapping maps public sort aliases to store column names.
	ColumnMapping = map[ColumnAlias]string
)

// Asc and Desc are shorthands for building orderings.
func Asc(column string) OrderBy  { return OrderBy{Column: column, Direction: DirectionASC} }
func Desc(column string) OrderBy { return OrderBy{Column: column, Direction: DirectionDESC} }

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// validColumn guards column names that end up inside raw SQL fragments.
func validColumn(column string) error {
	if column == "" {
		return fmt.Errorf("empty column name")
	}
	if !lo.Every(_availableColumnNameSymbols, []rune(column)) {
		return fmt.Errorf("column name contains forbidden symbols '%s'", column)
	}

	return nil
}

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	if err := validColumn(o.Column); err != nil {
		return fmt.Errorf("ordering: %w", err)
	}

	return nil
}

// ToSQLSlice renders each ordering as "<column> <direction>".
func (o Orderings) ToSQLSlice() []string {
	return lo.Map(o, func(ordering OrderBy, _ int) string {
		return fmt.Sprintf("%s %s", ordering.Column, ordering.Direction)
	})
}

// ToSQL renders the orderings as an ORDER BY list, e.g. "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply adds the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}
	}

	columns := lo.Map(o, func(ordering OrderBy, _ int) string { return ordering.Column })
	if dup := lo.FindDuplicates(columns); len(dup) > 0 {
		return fmt.Errorf("duplicate ordering column '%s'", dup[0])
	}

	return nil
}

// ParseSort builds Orderings from strings such as "published_at desc",
// resolving aliases through columnMapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make(Orderings, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)

	for _, stringOrdering := range stringsOrderings {
		parts := strings.Fields(stringOrdering)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
		}

		columnAlias := parts[0]
		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, fmt.Errorf("invalid column alias. closest: '%s'", closestAlias(columnAlias, aliases))
		}

		direction := Direction(strings.ToUpper(parts[1]))
		if !direction.Valid() {
			return nil, fmt.Errorf("invalid ordering direction '%s', want asc or desc", parts[1])
		}

		ret = append(ret, OrderBy{Column: columnName, Direction: direction})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
