package sloth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
)

// FilterOp selects how a Filter compares a column with its value.
type FilterOp string

const (
	// FilterEq keeps rows whose column equals the value.
	FilterEq FilterOp = "eq"
	// FilterHas keeps rows whose list column contains the value.
	FilterHas FilterOp = "has"
)

func (o FilterOp) Valid() bool {
	return o == FilterEq || o == FilterHas
}

type Filter struct {
	Column string   `json:"c"`
	Op     FilterOp `json:"o"`
	Value  any      `json:"v"`
}

// Query describes a scan over one entity kind. Its builder methods return a
// new Query; a value that was handed to a Paginator never changes.
type Query struct {
	kind    string
	filters []Filter
	sort    Orderings
}

func NewQuery(kind string, orderBy ...OrderBy) Query {
	return Query{kind: kind, sort: slices.Clone(Orderings(orderBy))}
}

// Where adds an equality filter.
func (q Query) Where(column string, value any) Query {
	return q.with(Filter{Column: column, Op: FilterEq, Value: value})
}

// WhereHas adds a list-membership filter.
func (q Query) WhereHas(column string, value any) Query {
	return q.with(Filter{Column: column, Op: FilterHas, Value: value})
}

// OrderBy returns a copy sorted by orderBy instead of the current orderings.
func (q Query) OrderBy(orderBy ...OrderBy) Query {
	q.filters = slices.Clone(q.filters)
	q.sort = slices.Clone(Orderings(orderBy))
	return q
}

func (q Query) with(f Filter) Query {
	q.filters = append(slices.Clone(q.filters), f)
	q.sort = slices.Clone(q.sort)
	return q
}

func (q Query) Kind() string { return q.kind }

func (q Query) Filters() []Filter { return slices.Clone(q.filters) }

func (q Query) Sort() Orderings { return slices.Clone(q.sort) }

// Validate checks everything a store will interpolate into a scan.
func (q Query) Validate() error {
	if q.kind == "" {
		return fmt.Errorf("query kind is empty")
	}

	for _, f := range q.filters {
		if !f.Op.Valid() {
			return fmt.Errorf("invalid filter operator '%s'", f.Op)
		}
		if err := validColumn(f.Column); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}

	return q.sort.validate()
}

// Fingerprint identifies semantically equal queries. It is stable across
// processes, so it can serve as a cache namespace. Filter values must be
// JSON serialisable.
func (q Query) Fingerprint() (string, error) {
	raw, err := json.Marshal(struct {
		Kind    string    `json:"k"`
		Filters []Filter  `json:"f"`
		Sort    Orderings `json:"s"`
	}{q.kind, q.filters, q.sort})
	if err != nil {
		return "", fmt.Errorf("cannot fingerprint %s query: %w", q.kind, err)
	}

	sum := sha256.Sum256(raw)
	return q.kind + ":" + hex.EncodeToString(sum[:8]), nil
}
