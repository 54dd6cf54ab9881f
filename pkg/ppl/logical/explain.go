/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package logical

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

// Explain renders the plan as an indented tree, root first.
func Explain(p Plan) string {
	var b strings.Builder
	explain(&b, p, 0)
	return b.String()
}

func explain(b *strings.Builder, p Plan, indent int) {
	name := reflect.TypeOf(p).Elem().Name()
	fmt.Fprintf(b, "%s%s[%s]\n", strings.Repeat("    ", indent), name, describe(p))

	for _, c := range p.Children() {
		explain(b, c, indent+1)
	}
}

func describe(p Plan) string {
	switch n := p.(type) {
	case *Relation:
		return n.Name
	case *Filter:
		return n.Condition.String()
	case *Project:
		return referenceNames(n.Fields)
	case *Remove:
		return referenceNames(n.Fields)
	case *Rename:
		pairs := make([]string, len(n.Mappings))
		for i, m := range n.Mappings {
			pairs[i] = m.From + " as " + m.To
		}
		return strings.Join(pairs, ", ")
	case *Eval:
		pairs := make([]string, len(n.Assignments))
		for i, a := range n.Assignments {
			pairs[i] = a.Name + " = " + a.Expression.String()
		}
		return strings.Join(pairs, ", ")
	case *Aggregation:
		aggs := make([]string, len(n.Aggregators))
		for i, a := range n.Aggregators {
			aggs[i] = a.String()
		}
		s := strings.Join(aggs, ", ")
		if len(n.GroupBy) > 0 {
			s += " by " + referenceNames(n.GroupBy)
		}
		return s
	case *Dedup:
		return fmt.Sprintf("%d %s keepempty=%t consecutive=%t", n.Allowed, referenceNames(n.Fields), n.KeepEmpty, n.Consecutive)
	case *Sort:
		items := make([]string, len(n.Items))
		for i, item := range n.Items {
			items[i] = "+" + item.Field.Name
			if item.Descending {
				items[i] = "-" + item.Field.Name
			}
		}
		return fmt.Sprintf("%d %s", n.Count, strings.Join(items, ", "))
	case *Limit:
		return fmt.Sprint(n.Count)
	case *Output:
		columns := make([]string, len(n.Columns))
		for i, c := range n.Columns {
			columns[i] = c.Name + ":" + c.Type.String()
		}
		return strings.Join(columns, ", ")
	}
	return ""
}

func referenceNames(refs []*expr.Reference) string {
	columns := referenceColumns(refs)
	return strings.Join(types.ColumnNames(columns), ", ")
}
