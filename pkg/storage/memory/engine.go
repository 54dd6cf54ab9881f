/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package memory is a storage engine keeping every table in memory. It is
// safe for concurrent readers and writers.
package memory

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dburkart/ppl/pkg/ppl/types"
	"github.com/dburkart/ppl/pkg/storage"
)

var ErrTableExists = errors.New("table already exists")

type Engine struct {
	// Our table map is private since it is guarded by tableLock
	tables    map[string]*Table
	tableLock sync.RWMutex
	log       zerolog.Logger
}

type Stats struct {
	Tables int
	Rows   int
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		tables: make(map[string]*Table),
		log:    log,
	}
}

// AddTable creates an empty table with the given field types.
func (e *Engine) AddTable(name string, schema types.Schema) (*Table, error) {
	if name == "" {
		return nil, errors.New("table name must not be empty")
	}
	for field, t := range schema {
		if t == types.UNKNOWN {
			return nil, errors.Errorf("field '%s' of table '%s' has no type", field, name)
		}
	}

	e.tableLock.Lock()
	defer e.tableLock.Unlock()

	if _, exists := e.tables[name]; exists {
		return nil, errors.Wrapf(ErrTableExists, "'%s'", name)
	}

	fields := make(types.Schema, len(schema))
	for field, t := range schema {
		fields[field] = t
	}

	table := &Table{Name: name, schema: fields, log: e.log.With().Str("table", name).Logger()}
	e.tables[name] = table
	e.log.Debug().Str("table", name).Int("fields", len(fields)).Msg("added table")

	return table, nil
}

func (e *Engine) GetTable(name string) (storage.Table, error) {
	t, err := e.Table(name)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Table is GetTable returning the concrete table.
func (e *Engine) Table(name string) (*Table, error) {
	e.tableLock.RLock()
	t, ok := e.tables[name]
	e.tableLock.RUnlock()

	if !ok {
		return nil, errors.Wrapf(storage.ErrTableNotFound, "'%s'", name)
	}
	return t, nil
}

// TableNames returns the name of every table, sorted.
func (e *Engine) TableNames() []string {
	e.tableLock.RLock()
	defer e.tableLock.RUnlock()

	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) Stats() Stats {
	e.tableLock.RLock()
	defer e.tableLock.RUnlock()

	s := Stats{Tables: len(e.tables)}
	for _, t := range e.tables {
		s.Rows += t.Len()
	}
	return s
}
