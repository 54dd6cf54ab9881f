/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ast

// Walk traverses the tree depth-first. Visit is called with each node; if it
// returns a non-nil Visitor, the node's children are walked with it and
// Visit(nil) is called once they are done.
func Walk(v Visitor, node ASTNode) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *QueryNode:
		for _, c := range n.Commands {
			Walk(v, c)
		}

	case *SearchNode:
		Walk(v, &n.Source)

		if n.Condition != nil {
			Walk(v, n.Condition)
		}

	case *WhereNode:
		Walk(v, n.Condition)

	case *FieldsNode:
		for idx := range n.Fields {
			Walk(v, &n.Fields[idx])
		}

	case *RenameNode:
		for idx := range n.Renames {
			Walk(v, &n.Renames[idx])
		}

	case *RenamePairNode:
		Walk(v, &n.From)
		Walk(v, &n.To)

	case *StatsNode:
		for idx := range n.Aggregates {
			Walk(v, &n.Aggregates[idx])
		}
		for idx := range n.GroupBy {
			Walk(v, &n.GroupBy[idx])
		}

	case *AggregateNode:
		if n.Argument != nil {
			Walk(v, n.Argument)
		}

		if n.Alias != nil {
			Walk(v, n.Alias)
		}

	case *DedupNode:
		if n.Count != nil {
			Walk(v, n.Count)
		}
		for idx := range n.Fields {
			Walk(v, &n.Fields[idx])
		}

	case *SortNode:
		if n.Count != nil {
			Walk(v, n.Count)
		}
		for idx := range n.Fields {
			Walk(v, &n.Fields[idx])
		}

	case *SortFieldNode:
		Walk(v, &n.Field)

	case *HeadNode:
		if n.Count != nil {
			Walk(v, n.Count)
		}

	case *EvalNode:
		for idx := range n.Assignments {
			Walk(v, &n.Assignments[idx])
		}

	case *AssignmentNode:
		Walk(v, &n.Field)
		Walk(v, n.Expression)

	case *BinaryOpNode:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *UnaryOpNode:
		Walk(v, n.Operand)

	case *IdentifierNode, *NumberNode, *StringNode, *BooleanNode:
		// Skip, leaf nodes

	default:
		panic("Unexpected ASTNode passed to Walk")
	}

	v.Visit(nil)
}
