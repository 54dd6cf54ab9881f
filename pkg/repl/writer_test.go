/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dburkart/ppl/pkg/executor"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

func response() executor.QueryResponse {
	return executor.QueryResponse{
		Schema: []types.Column{{Name: "name", Type: types.STRING}, {Name: "age", Type: types.INTEGER}},
		Rows: []types.Row{
			{"name": types.MakeString("ann"), "age": types.MakeInt(34)},
			{"name": types.MakeString("bob")},
		},
	}
}

func TestCSVWriter(t *testing.T) {
	var b bytes.Buffer
	if err := NewOutputWriter(&b, "csv").Write(response()); err != nil {
		t.Fatal(err)
	}

	expected := "name,age\nann,34\nbob,null\n"
	if b.String() != expected {
		t.Errorf("expected %q, got %q", expected, b.String())
	}
}

func TestJSONWriter(t *testing.T) {
	var b bytes.Buffer
	if err := NewOutputWriter(&b, "JSON").Write(response()); err != nil {
		t.Fatal(err)
	}

	expected := `{"schema":[{"name":"name","type":"string"},{"name":"age","type":"integer"}],"datarows":[["ann",34],["bob",null]],"total":2,"size":2}` + "\n"
	if b.String() != expected {
		t.Errorf("expected %s, got %s", expected, b.String())
	}
}

func TestTextWriter(t *testing.T) {
	var b bytes.Buffer
	if err := NewOutputWriter(&b, "").Write(response()); err != nil {
		t.Fatal(err)
	}

	out := strings.ToLower(b.String())
	for _, s := range []string{"name", "age", "ann", "34", "bob", "null"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected table to contain %q:\n%s", s, b.String())
		}
	}
}
