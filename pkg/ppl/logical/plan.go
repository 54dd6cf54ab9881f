/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package logical describes bound query plans. A plan is a tree rooted at a
// single Output node with a single Relation leaf, and every column it
// references has been resolved to a type.
package logical

import (
	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

type Plan interface {
	// Schema returns the columns produced by this node, in order.
	Schema() []types.Column
	Children() []Plan

	plan()
}

type (
	Relation struct {
		Name    string
		Columns []types.Column
	}

	Filter struct {
		Child     Plan
		Condition expr.Expression
	}

	Project struct {
		Child  Plan
		Fields []*expr.Reference
	}

	Remove struct {
		Child  Plan
		Fields []*expr.Reference
	}

	Rename struct {
		Child    Plan
		Mappings []RenameMapping
	}

	Eval struct {
		Child       Plan
		Assignments []Assignment
	}

	Aggregation struct {
		Child       Plan
		Aggregators []*expr.Aggregator
		GroupBy     []*expr.Reference
	}

	Dedup struct {
		Child       Plan
		Fields      []*expr.Reference
		Allowed     int
		KeepEmpty   bool
		Consecutive bool
	}

	Sort struct {
		Child Plan
		// Count limits the output to the first Count rows; 0 means all.
		Count int
		Items []SortItem
	}

	Limit struct {
		Child Plan
		Count int
	}

	Output struct {
		Child   Plan
		Columns []types.Column
	}
)

type RenameMapping struct {
	From string
	To   string
}

type Assignment struct {
	Name       string
	Expression expr.Expression
}

type SortItem struct {
	Field      *expr.Reference
	Descending bool
}

func (*Relation) plan()    {}
func (*Filter) plan()      {}
func (*Project) plan()     {}
func (*Remove) plan()      {}
func (*Rename) plan()      {}
func (*Eval) plan()        {}
func (*Aggregation) plan() {}
func (*Dedup) plan()       {}
func (*Sort) plan()        {}
func (*Limit) plan()       {}
func (*Output) plan()      {}

func (r *Relation) Schema() []types.Column { return r.Columns }
func (r *Relation) Children() []Plan       { return nil }

func (f *Filter) Schema() []types.Column { return f.Child.Schema() }
func (f *Filter) Children() []Plan       { return []Plan{f.Child} }

func (p *Project) Schema() []types.Column { return referenceColumns(p.Fields) }
func (p *Project) Children() []Plan       { return []Plan{p.Child} }

func (r *Remove) Schema() []types.Column {
	removed := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		removed[f.Name] = true
	}

	var columns []types.Column
	for _, c := range r.Child.Schema() {
		if !removed[c.Name] {
			columns = append(columns, c)
		}
	}
	return columns
}
func (r *Remove) Children() []Plan { return []Plan{r.Child} }

func (r *Rename) Schema() []types.Column {
	columns := append([]types.Column(nil), r.Child.Schema()...)
	for _, m := range r.Mappings {
		for i := range columns {
			if columns[i].Name == m.From {
				columns[i].Name = m.To
				break
			}
		}
	}
	return columns
}
func (r *Rename) Children() []Plan { return []Plan{r.Child} }

func (e *Eval) Schema() []types.Column {
	columns := append([]types.Column(nil), e.Child.Schema()...)
	for _, a := range e.Assignments {
		columns = PutColumn(columns, types.Column{Name: a.Name, Type: a.Expression.Type()})
	}
	return columns
}
func (e *Eval) Children() []Plan { return []Plan{e.Child} }

func (a *Aggregation) Schema() []types.Column {
	columns := make([]types.Column, 0, len(a.Aggregators)+len(a.GroupBy))
	for _, agg := range a.Aggregators {
		columns = append(columns, types.Column{Name: agg.Name, Type: agg.ExprType})
	}
	return append(columns, referenceColumns(a.GroupBy)...)
}
func (a *Aggregation) Children() []Plan { return []Plan{a.Child} }

func (d *Dedup) Schema() []types.Column { return d.Child.Schema() }
func (d *Dedup) Children() []Plan       { return []Plan{d.Child} }

func (s *Sort) Schema() []types.Column { return s.Child.Schema() }
func (s *Sort) Children() []Plan       { return []Plan{s.Child} }

func (l *Limit) Schema() []types.Column { return l.Child.Schema() }
func (l *Limit) Children() []Plan       { return []Plan{l.Child} }

func (o *Output) Schema() []types.Column { return o.Columns }
func (o *Output) Children() []Plan       { return []Plan{o.Child} }

// PutColumn replaces the column with the same name, or appends c.
func PutColumn(columns []types.Column, c types.Column) []types.Column {
	for i := range columns {
		if columns[i].Name == c.Name {
			columns[i] = c
			return columns
		}
	}
	return append(columns, c)
}

func referenceColumns(refs []*expr.Reference) []types.Column {
	columns := make([]types.Column, len(refs))
	for i, r := range refs {
		columns[i] = types.Column{Name: r.Name, Type: r.ExprType}
	}
	return columns
}

// Relations returns every Relation leaf of the plan.
func Relations(p Plan) []*Relation {
	if r, ok := p.(*Relation); ok {
		return []*Relation{r}
	}

	var relations []*Relation
	for _, c := range p.Children() {
		relations = append(relations, Relations(c)...)
	}
	return relations
}
