// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"fmt"
	"strings"
)

// Type is the semantic type of a column.
type Type string

const (
	String Type = "string"
	Int    Type = "int"
	Float  Type = "float"
	Time   Type = "time"
	Bool   Type = "bool"
)

// ParseType returns the Type named by s.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.TrimSpace(s)); t {
	case String, Int, Float, Time, Bool:
		return t, nil
	default:
		return "", fmt.Errorf("unknown column type %q", s)
	}
}

// Column names a column and gives its type.
type Column struct {
	Name string
	Type Type
}

// Schema is the ordered column list of a table.
type Schema []Column

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Validate checks that the schema is non-empty, that names are unique and
// non-empty and that every type is known. Names may not contain ',' or ':'
// because those delimit the descriptor form.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema has no columns")
	}
	seen := make(map[string]bool, len(s))
	for i, c := range s {
		if c.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if strings.ContainsAny(c.Name, ",:") {
			return fmt.Errorf("column %q contains a reserved character", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if _, err := ParseType(string(c.Type)); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return nil
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the descriptor form, e.g. "suburb:string,price:float".
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + ":" + string(c.Type)
	}
	return strings.Join(parts, ",")
}

// ParseSchema is the inverse of Schema.String.
func ParseSchema(desc string) (Schema, error) {
	if strings.TrimSpace(desc) == "" {
		return nil, fmt.Errorf("empty schema descriptor")
	}

	var s Schema
	for _, part := range strings.Split(desc, ",") {
		idx := strings.LastIndex(part, ":")
		if idx <= 0 {
			return nil, fmt.Errorf("malformed column descriptor %q", part)
		}
		typ, err := ParseType(part[idx+1:])
		if err != nil {
			return nil, err
		}
		s = append(s, Column{Name: part[:idx], Type: typ})
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
