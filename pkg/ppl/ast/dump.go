/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ast

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

type Dumper struct {
	Output string
	indent int
}

func (d *Dumper) Visit(node ASTNode) Visitor {
	if node == nil {
		d.indent -= 1
		return nil
	}

	level := strings.Repeat("    ", d.indent)

	value := node.Value()
	switch t := node.(type) {
	case *FieldsNode:
		if t.Exclude {
			value = "- " + value
		}
	case *DedupNode:
		value = fmt.Sprintf("%s keepempty=%t consecutive=%t", value, t.KeepEmpty, t.Consecutive)
	case *SortFieldNode:
		value = "asc"
		if t.Descending {
			value = "desc"
		}
	case *IdentifierNode:
		value = t.Name()
	case *StringNode, *NumberNode, *BooleanNode:
		value = fmt.Sprintf("%s:%s", value, kindOf(t))
	}

	t := reflect.TypeOf(node)
	output := level + t.Elem().Name() + "[" + value + "]" + "\n"

	d.Output += output
	d.indent += 1

	return d
}

// Dump renders a tree in the indented form used by the golden parser tests.
func Dump(node ASTNode) string {
	var d Dumper
	Walk(&d, node)
	return d.Output
}

func kindOf(node ASTNode) string {
	switch n := node.(type) {
	case *StringNode:
		return "string"
	case *BooleanNode:
		return "boolean"
	case *NumberNode:
		if n.Val.Kind() == types.Float {
			return "float"
		}
	}
	return "int"
}
