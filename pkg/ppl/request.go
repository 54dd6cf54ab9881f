/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ppl

import "strings"

const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// QueryRequest is a query as submitted by a caller. Format only matters to
// whoever renders the response.
type QueryRequest struct {
	Query  string
	Format string
}

func NewQueryRequest(query, format string) QueryRequest {
	return QueryRequest{Query: query, Format: format}
}

// ResponseFormat returns the requested format, falling back to a table for
// anything unrecognized.
func (r QueryRequest) ResponseFormat() string {
	switch f := strings.ToLower(strings.TrimSpace(r.Format)); f {
	case FormatCSV, FormatJSON:
		return f
	}
	return FormatTable
}
