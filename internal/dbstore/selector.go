package dbstore

import (
	"fmt"
	"strings"
)

// Mode joins the conditions of a selector.
type Mode int

const (
	ModeAnd Mode = iota
	ModeOr
)

// Comparator compares a field with a value.
type Comparator int

const (
	EQ Comparator = iota
	NE
	LT
	LE
	GT
	GE
)

var comparatorSQL = map[Comparator]string{EQ: "=", NE: "!=", LT: "<", LE: "<=", GT: ">", GE: ">="}

// Cond is one comparison.
type Cond struct {
	Field string
	Op    Comparator
	Value any
}

// Selector picks entries. An empty selector matches every entry.
type Selector struct {
	Mode  Mode
	Conds []Cond
}

// where renders the selector against s. Values are checked against the
// field types.
func (sel *Selector) where(s *Schema) (string, []any, error) {
	if sel == nil || len(sel.Conds) == 0 {
		return "", nil, nil
	}
	join := " AND "
	if sel.Mode == ModeOr {
		join = " OR "
	}
	parts := make([]string, len(sel.Conds))
	args := make([]any, len(sel.Conds))
	for i, c := range sel.Conds {
		op, ok := comparatorSQL[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: comparator %d", ErrInvalidSelector, c.Op)
		}
		v, err := s.CheckValue(c.Field, c.Value)
		if err != nil {
			return "", nil, err
		}
		parts[i] = quote(c.Field) + " " + op + " ?"
		args[i] = v
	}
	return " WHERE " + strings.Join(parts, join), args, nil
}
