package dbstore

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// FieldType is the type of a schema field.
type FieldType int

const (
	String FieldType = iota + 1
	Float
	Uint
	Sint
	Blob
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Float:
		return "float"
	case Uint:
		return "uint"
	case Sint:
		return "sint"
	case Blob:
		return "blob"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

func (t FieldType) sqlType() string {
	switch t {
	case String:
		return "TEXT"
	case Float:
		return "REAL"
	case Uint, Sint:
		return "INTEGER"
	default:
		return "BLOB"
	}
}

// Field is a named, typed column.
type Field struct {
	Name string
	Type FieldType
}

// Schema describes a table of entries.
type Schema struct {
	Namespace string
	Name      string
	Fields    []Field
	// Indexes lists the field names of each index, in order.
	Indexes [][]string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate checks names, field types and index references.
func (s *Schema) Validate() error {
	if !identRe.MatchString(s.Namespace) || !identRe.MatchString(s.Name) {
		return fmt.Errorf("%w: schema %q/%q", ErrInvalidName, s.Namespace, s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema %s has no fields", ErrInvalidSchema, s.Name)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if !identRe.MatchString(f.Name) || strings.HasPrefix(f.Name, "_") {
			return fmt.Errorf("%w: field %q", ErrInvalidName, f.Name)
		}
		if f.Type < String || f.Type > Blob {
			return fmt.Errorf("%w: field %s has type %v", ErrInvalidSchema, f.Name, f.Type)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true
	}
	for _, idx := range s.Indexes {
		if len(idx) == 0 {
			return fmt.Errorf("%w: empty index", ErrInvalidSchema)
		}
		for _, name := range idx {
			if !seen[name] {
				return fmt.Errorf("%w: index on unknown field %s", ErrInvalidSchema, name)
			}
		}
	}
	return nil
}

// Field returns the field called name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CheckValue converts v to the storage representation of field name.
// Integers of any width are accepted for uint and sint fields.
func (s *Schema) CheckValue(name string, v any) (any, error) {
	f, ok := s.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Name, name)
	}
	out, ok := convert(f.Type, v)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %v, got %T", ErrTypeMismatch, name, f.Type, v)
	}
	return out, nil
}

func convert(t FieldType, v any) (any, bool) {
	switch t {
	case String:
		s, ok := v.(string)
		return s, ok
	case Float:
		switch x := v.(type) {
		case float64:
			return x, true
		case float32:
			return float64(x), true
		}
	case Blob:
		b, ok := v.([]byte)
		return b, ok
	case Sint:
		switch x := v.(type) {
		case int:
			return int64(x), true
		case int32:
			return int64(x), true
		case int64:
			return x, true
		}
	case Uint:
		var u uint64
		switch x := v.(type) {
		case uint:
			u = uint64(x)
		case uint32:
			u = uint64(x)
		case uint64:
			u = x
		default:
			return nil, false
		}
		// SQLite integers are signed 64-bit.
		if u > math.MaxInt64 {
			return nil, false
		}
		return int64(u), true
	}
	return nil, false
}

func (s *Schema) table() string {
	return quote(s.Namespace + "_" + s.Name)
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func (s *Schema) createSQL() []string {
	cols := make([]string, 0, len(s.Fields)+1)
	cols = append(cols, "_id INTEGER PRIMARY KEY")
	for _, f := range s.Fields {
		cols = append(cols, quote(f.Name)+" "+f.Type.sqlType())
	}
	stmts := []string{fmt.Sprintf("CREATE TABLE %s (%s)", s.table(), strings.Join(cols, ", "))}
	for i, idx := range s.Indexes {
		names := make([]string, len(idx))
		for j, n := range idx {
			names[j] = quote(n)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			quote(fmt.Sprintf("%s_%s_idx%d", s.Namespace, s.Name, i)), s.table(), strings.Join(names, ", ")))
	}
	return stmts
}
