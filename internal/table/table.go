// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"fmt"
	"math"
	"time"
)

// Table is a read-only set of rows conforming to a Schema. Tables are built
// with a Builder and never change afterwards, so they can be shared freely.
type Table struct {
	schema Schema
	rows   [][]any
}

// Schema returns a copy of the table's schema.
func (t *Table) Schema() Schema {
	return append(Schema(nil), t.schema...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Value returns the cell at row i in column col. It returns nil for null
// cells and for unknown columns.
func (t *Table) Value(i int, col string) any {
	idx := t.schema.Index(col)
	if idx < 0 {
		return nil
	}
	return t.rows[i][idx]
}

// Row returns a copy of row i in schema order.
func (t *Table) Row(i int) []any {
	return append([]any(nil), t.rows[i]...)
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.schema))
	for j, c := range t.schema {
		rec[c.Name] = t.rows[i][j]
	}
	return rec
}

// Records returns every row keyed by column name.
func (t *Table) Records() []map[string]any {
	recs := make([]map[string]any, len(t.rows))
	for i := range t.rows {
		recs[i] = t.Record(i)
	}
	return recs
}

// Equal reports whether both tables have the same schema and cell values.
// NaN compares equal to NaN.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !t.schema.Equal(o.schema) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !cellEqual(t.rows[i][j], o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func cellEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(av) && math.IsNaN(bv) {
			return true
		}
		return av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

// Builder accumulates rows for a new Table.
type Builder struct {
	schema Schema
	rows   [][]any
	err    error
}

// NewBuilder returns a Builder for the given schema. An invalid schema is
// reported by Build.
func NewBuilder(schema Schema) *Builder {
	b := &Builder{schema: append(Schema(nil), schema...)}
	if err := b.schema.Validate(); err != nil {
		b.err = err
	}
	return b
}

// Append adds a row. Values are given in schema order and must match the
// column types; nil is accepted for any column. Times are stored in UTC.
func (b *Builder) Append(values ...any) error {
	if b.err != nil {
		return b.err
	}
	if len(values) != len(b.schema) {
		return fmt.Errorf("row has %d values, schema has %d columns", len(values), len(b.schema))
	}

	row := make([]any, len(values))
	for i, v := range values {
		cv, err := coerce(b.schema[i], v)
		if err != nil {
			return err
		}
		row[i] = cv
	}
	b.rows = append(b.rows, row)
	return nil
}

// AppendRecord adds a row given as a map keyed by column name. Missing
// columns are null; unknown keys are an error.
func (b *Builder) AppendRecord(rec map[string]any) error {
	if b.err != nil {
		return b.err
	}
	values := make([]any, len(b.schema))
	for k, v := range rec {
		idx := b.schema.Index(k)
		if idx < 0 {
			return fmt.Errorf("unknown column %q", k)
		}
		values[idx] = v
	}
	return b.Append(values...)
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int {
	return len(b.rows)
}

// Build returns the finished Table. The Builder must not be used afterwards.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	t := &Table{schema: b.schema, rows: b.rows}
	b.rows = nil
	b.err = fmt.Errorf("builder already used")
	return t, nil
}

// coerce checks v against the column type, widening the integer types.
func coerce(c Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch c.Type {
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Int:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		}
	case Time:
		if tv, ok := v.(time.Time); ok {
			return tv.UTC(), nil
		}
	case Bool:
		if bv, ok := v.(bool); ok {
			return bv, nil
		}
	}

	return nil, fmt.Errorf("column %q: %T is not a valid %s value", c.Name, v, c.Type)
}
