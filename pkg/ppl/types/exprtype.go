/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package types

import (
	"fmt"
	"sort"
	"strings"
)

// ExprType is the type of a field or expression as seen by the analyzer.
type ExprType int

const (
	UNKNOWN ExprType = iota
	BOOLEAN
	INTEGER
	LONG
	FLOAT
	DOUBLE
	STRING
	STRUCT
	ARRAY
)

func (t ExprType) String() string {
	switch t {
	case BOOLEAN:
		return "BOOLEAN"
	case INTEGER:
		return "INTEGER"
	case LONG:
		return "LONG"
	case FLOAT:
		return "FLOAT"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	case STRUCT:
		return "STRUCT"
	case ARRAY:
		return "ARRAY"
	}
	return "UNKNOWN"
}

func (t ExprType) IsNumeric() bool {
	return t == INTEGER || t == LONG || t == FLOAT || t == DOUBLE
}

func (t ExprType) IsIntegral() bool {
	return t == INTEGER || t == LONG
}

// Widest returns the wider of two numeric types, following
// INTEGER < LONG < FLOAT < DOUBLE.
func Widest(a, b ExprType) ExprType {
	if a > b {
		return a
	}
	return b
}

// TypeFromString maps a type name found in a dataset or config file to an
// ExprType. Names are case-insensitive and a few common aliases are accepted.
func TypeFromString(input string) (ExprType, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "boolean", "bool":
		return BOOLEAN, nil
	case "integer", "int", "short", "byte":
		return INTEGER, nil
	case "long":
		return LONG, nil
	case "float":
		return FLOAT, nil
	case "double":
		return DOUBLE, nil
	case "string", "text", "keyword":
		return STRING, nil
	case "struct", "object":
		return STRUCT, nil
	case "array", "nested":
		return ARRAY, nil
	}
	return UNKNOWN, fmt.Errorf("unknown field type '%s'", input)
}

// Schema maps field names to their types.
type Schema map[string]ExprType

// Column is a named, typed output column.
type Column struct {
	Name string
	Type ExprType
}

// Columns returns the schema as columns ordered by name.
func (s Schema) Columns() []Column {
	columns := make([]Column, 0, len(s))
	for name, t := range s {
		columns = append(columns, Column{Name: name, Type: t})
	}
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Name < columns[j].Name
	})
	return columns
}

// ColumnNames returns the names of columns, in order.
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
