package backend

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrEmptyFilter is returned by Update and Delete when no condition is given.
var ErrEmptyFilter = errors.New("refusing to modify rows without a filter")

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is a plain lower-case table or column name.
func ValidIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// Condition is a single equality condition.
type Condition struct {
	Column string
	Value  any
}

// Filter is a conjunction of equality conditions.
type Filter struct {
	conds []Condition
}

// Eq starts a filter with column = value.
func Eq(column string, value any) Filter {
	return Filter{}.Eq(column, value)
}

// Eq adds column = value to the filter.
func (f Filter) Eq(column string, value any) Filter {
	conds := make([]Condition, len(f.conds), len(f.conds)+1)
	copy(conds, f.conds)
	f.conds = append(conds, Condition{Column: column, Value: value})
	return f
}

func (f Filter) IsEmpty() bool {
	return len(f.conds) == 0
}

func (f Filter) Conditions() []Condition {
	out := make([]Condition, len(f.conds))
	copy(out, f.conds)
	return out
}

// Validate checks that every column is a safe identifier.
func (f Filter) Validate() error {
	for _, c := range f.conds {
		if !ValidIdentifier(c.Column) {
			return fmt.Errorf("invalid filter column %q", c.Column)
		}
	}
	return nil
}

type OrderBy struct {
	Column string
	Desc   bool
}

// Embed pulls a related table into each row, e.g. the customer of an order.
// Relation is the JSON key the related row is decoded into.
type Embed struct {
	Relation string
	Table    string
	Columns  []string
}

// Query describes a select.
type Query struct {
	Columns []string
	Filter  Filter
	Order   []OrderBy
	Embeds  []Embed
	Single  bool
}

// Validate checks every identifier referenced by the query.
func (q Query) Validate() error {
	for _, col := range q.Columns {
		if !ValidIdentifier(col) {
			return fmt.Errorf("invalid column %q", col)
		}
	}
	if err := q.Filter.Validate(); err != nil {
		return err
	}
	for _, o := range q.Order {
		if !ValidIdentifier(o.Column) {
			return fmt.Errorf("invalid order column %q", o.Column)
		}
	}
	for _, e := range q.Embeds {
		if !ValidIdentifier(e.Relation) || !ValidIdentifier(e.Table) {
			return fmt.Errorf("invalid embed %q:%q", e.Relation, e.Table)
		}
		for _, col := range e.Columns {
			if !ValidIdentifier(col) {
				return fmt.Errorf("invalid embed column %q", col)
			}
		}
	}
	return nil
}
