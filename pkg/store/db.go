package store

import (
	"context"
	"maps"
	"slices"

	"github.com/gezibash/arc-bench/internal/dbstore"
	arcerrors "github.com/gezibash/arc-bench/pkg/errors"
)

// FieldType is the type of a schema field.
type FieldType = dbstore.FieldType

const (
	FieldString = dbstore.String
	FieldFloat  = dbstore.Float
	FieldUint   = dbstore.Uint
	FieldSint   = dbstore.Sint
	FieldBlob   = dbstore.Blob
)

// SelectorMode joins the conditions of a selector.
type SelectorMode = dbstore.Mode

const (
	ModeAnd = dbstore.ModeAnd
	ModeOr  = dbstore.ModeOr
)

// Comparator compares a field with a value.
type Comparator = dbstore.Comparator

const (
	EQ = dbstore.EQ
	NE = dbstore.NE
	LT = dbstore.LT
	LE = dbstore.LE
	GT = dbstore.GT
	GE = dbstore.GE
)

// Schema is a handle on a table definition. Fields and indexes are added
// before Create is staged.
type Schema struct {
	def dbstore.Schema
}

// NewSchema returns an empty schema name in namespace ns.
func (c *Client) NewSchema(ns, name string) *Schema {
	return &Schema{def: dbstore.Schema{Namespace: ns, Name: name}}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.def.Name }

// AddField declares a field.
func (s *Schema) AddField(name string, t FieldType) error {
	if _, ok := s.def.Field(name); ok {
		return invalid("field %s declared twice", name)
	}
	s.def.Fields = append(s.def.Fields, dbstore.Field{Name: name, Type: t})
	return nil
}

// AddIndex declares an index over fields, which must already exist.
func (s *Schema) AddIndex(fields ...string) error {
	if len(fields) == 0 {
		return invalid("empty index")
	}
	for _, f := range fields {
		if _, ok := s.def.Field(f); !ok {
			return invalid("index on unknown field %s", f)
		}
	}
	s.def.Indexes = append(s.def.Indexes, slices.Clone(fields))
	return nil
}

// snapshot copies the definition so later AddField calls do not change
// staged operations.
func (s *Schema) snapshot() *dbstore.Schema {
	def := s.def
	def.Fields = slices.Clone(s.def.Fields)
	def.Indexes = slices.Clone(s.def.Indexes)
	return &def
}

// Create stages creation of the schema.
func (s *Schema) Create(b *Batch) error {
	def := s.snapshot()
	if err := def.Validate(); err != nil {
		return invalid("%v", err)
	}
	return b.stage(staged{db: dbstore.CreateSchema{Schema: def}})
}

// Delete stages removal of the schema and its entries.
func (s *Schema) Delete(b *Batch) error {
	return b.stage(staged{db: dbstore.DropSchema{Schema: s.snapshot()}})
}

// Entry holds field values to insert or update.
type Entry struct {
	schema *Schema
	values map[string]any
}

// NewEntry returns an empty entry of schema.
func NewEntry(schema *Schema) *Entry {
	return &Entry{schema: schema, values: make(map[string]any)}
}

// Set assigns value to field, checking the field type.
func (e *Entry) Set(field string, value any) error {
	if _, err := e.schema.def.CheckValue(field, value); err != nil {
		return invalid("%v", err)
	}
	e.values[field] = value
	return nil
}

// Insert stages insertion of the entry.
func (e *Entry) Insert(b *Batch) error {
	return b.stage(staged{db: dbstore.Insert{Schema: e.schema.snapshot(), Values: maps.Clone(e.values)}})
}

// Update stages setting the entry's values on every entry sel matches.
func (e *Entry) Update(sel *Selector, b *Batch) error {
	if len(e.values) == 0 {
		return invalid("update sets no fields")
	}
	return b.stage(staged{db: dbstore.Update{
		Schema:   e.schema.snapshot(),
		Selector: sel.snapshot(),
		Values:   maps.Clone(e.values),
	}})
}

// Delete stages removal of every entry sel matches.
func (e *Entry) Delete(sel *Selector, b *Batch) error {
	return b.stage(staged{db: dbstore.Delete{Schema: e.schema.snapshot(), Selector: sel.snapshot()}})
}

// Selector picks entries of a schema. An empty selector matches all.
type Selector struct {
	schema *Schema
	sel    dbstore.Selector
}

// NewSelector returns an empty selector joining conditions with mode.
func NewSelector(schema *Schema, mode SelectorMode) *Selector {
	return &Selector{schema: schema, sel: dbstore.Selector{Mode: mode}}
}

// Add appends the condition field op value.
func (s *Selector) Add(field string, op Comparator, value any) error {
	if _, err := s.schema.def.CheckValue(field, value); err != nil {
		return invalid("%v", err)
	}
	s.sel.Conds = append(s.sel.Conds, dbstore.Cond{Field: field, Op: op, Value: value})
	return nil
}

func (s *Selector) snapshot() *dbstore.Selector {
	if s == nil {
		return nil
	}
	sel := s.sel
	sel.Conds = slices.Clone(s.sel.Conds)
	return &sel
}

// Iterator walks the entries a selector matched when it was created.
type Iterator struct {
	rows []dbstore.Row
	pos  int
}

// NewIterator runs the query immediately; it is not part of any batch.
func (c *Client) NewIterator(ctx context.Context, schema *Schema, sel *Selector) (*Iterator, error) {
	rows, err := c.db.Query(ctx, schema.snapshot(), sel.snapshot())
	if err != nil {
		return nil, notFound(err)
	}
	return &Iterator{rows: rows, pos: -1}, nil
}

// Next advances to the next entry.
func (it *Iterator) Next() bool {
	if it.pos+1 >= len(it.rows) {
		it.pos = len(it.rows)
		return false
	}
	it.pos++
	return true
}

// Get returns field of the current entry.
func (it *Iterator) Get(field string) (any, error) {
	if it.pos < 0 || it.pos >= len(it.rows) {
		return nil, invalid("iterator not positioned on an entry")
	}
	v, ok := it.rows[it.pos][field]
	if !ok {
		return nil, arcerrors.ErrNotFound
	}
	return v, nil
}

// Len returns the number of matched entries.
func (it *Iterator) Len() int { return len(it.rows) }
