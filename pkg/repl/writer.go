/*
 * Copyright (c) 2023, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package repl

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dburkart/ppl/pkg/executor"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

type OutputWriter interface {
	Write(r executor.QueryResponse) error
}

type CSVWriter struct {
	w io.Writer
}

type TextWriter struct {
	w io.Writer
}

type JSONWriter struct {
	w io.Writer
}

func NewOutputWriter(w io.Writer, t string) OutputWriter {
	switch strings.ToLower(t) {
	case "csv":
		return CSVWriter{
			w,
		}
	case "json":
		return JSONWriter{
			w,
		}
	}
	return TextWriter{
		w,
	}
}

func headers(r executor.QueryResponse) []string {
	return types.ColumnNames(r.Schema)
}

func values(r executor.QueryResponse) [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		vals := row.Values(r.Schema)
		out[i] = make([]string, len(vals))
		for j, v := range vals {
			out[i][j] = v.String()
		}
	}
	return out
}

func (w CSVWriter) Write(r executor.QueryResponse) error {
	wtr := csv.NewWriter(w.w)
	if err := wtr.Write(headers(r)); err != nil {
		return err
	}
	return wtr.WriteAll(values(r))
}

func (w TextWriter) Write(r executor.QueryResponse) error {
	table := tablewriter.NewWriter(w.w)

	header := headers(r)
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)

	if err := table.Bulk(values(r)); err != nil {
		return err
	}
	return table.Render()
}

type jsonColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonResponse struct {
	Schema   []jsonColumn    `json:"schema"`
	DataRows [][]interface{} `json:"datarows"`
	Total    int             `json:"total"`
	Size     int             `json:"size"`
}

func (w JSONWriter) Write(r executor.QueryResponse) error {
	out := jsonResponse{
		Schema:   make([]jsonColumn, len(r.Schema)),
		DataRows: make([][]interface{}, len(r.Rows)),
		Total:    len(r.Rows),
		Size:     len(r.Rows),
	}
	for i, c := range r.Schema {
		out.Schema[i] = jsonColumn{Name: c.Name, Type: strings.ToLower(c.Type.String())}
	}
	for i, row := range r.Rows {
		vals := row.Values(r.Schema)
		out.DataRows[i] = make([]interface{}, len(vals))
		for j, v := range vals {
			out.DataRows[i][j] = types.Interface(v)
		}
	}

	enc := json.NewEncoder(w.w)
	return enc.Encode(out)
}
