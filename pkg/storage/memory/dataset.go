/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package memory

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

// A dataset file describes tables and their rows:
//
//	tables:
//	  people:
//	    schema:
//	      name: string
//	      age: integer
//	    rows:
//	      - {name: ann, age: 34}
//
// JSON documents of the same shape are accepted too.
type dataset struct {
	Tables map[string]tableDef `yaml:"tables"`
}

type tableDef struct {
	Schema map[string]string        `yaml:"schema"`
	Rows   []map[string]interface{} `yaml:"rows"`
}

// LoadFile reads the dataset at path into e.
func LoadFile(e *Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening dataset")
	}
	defer f.Close()

	return errors.Wrapf(Load(e, f), "loading '%s'", path)
}

// Load reads a dataset from r, adding every table it describes to e.
func Load(e *Engine, r io.Reader) error {
	var d dataset
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrap(err, "decoding dataset")
	}

	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := d.Tables[name]

		schema := make(types.Schema, len(def.Schema))
		for field, typeName := range def.Schema {
			t, err := types.TypeFromString(typeName)
			if err != nil {
				return errors.Wrapf(err, "table '%s', field '%s'", name, field)
			}
			schema[field] = t
		}

		table, err := e.AddTable(name, schema)
		if err != nil {
			return err
		}

		for i, row := range def.Rows {
			if err := table.Append(row); err != nil {
				return errors.Wrapf(err, "table '%s', row %d", name, i)
			}
		}

		e.log.Info().Str("table", name).Int("rows", len(def.Rows)).Msg("loaded table")
	}

	return nil
}
