/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package executor runs physical plans and reports their outcome to a
// ResponseListener, exactly once per query.
package executor

import (
	"context"
	"sync"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

// QueryResponse is the result of a successful query. Rows is never nil.
type QueryResponse struct {
	Schema []types.Column
	Rows   []types.Row
}

type ResponseListener interface {
	OnResponse(response QueryResponse)
	OnFailure(err error)
}

// ListenerFuncs adapts a pair of functions to a ResponseListener. Either may
// be nil.
type ListenerFuncs struct {
	Response func(QueryResponse)
	Failure  func(error)
}

func (l ListenerFuncs) OnResponse(response QueryResponse) {
	if l.Response != nil {
		l.Response(response)
	}
}

func (l ListenerFuncs) OnFailure(err error) {
	if l.Failure != nil {
		l.Failure(err)
	}
}

type onceListener struct {
	listener ResponseListener
	once     sync.Once
}

// Once wraps l so that only the first outcome reported reaches it. Later
// calls, of either method, are dropped.
func Once(l ResponseListener) ResponseListener {
	if o, ok := l.(*onceListener); ok {
		return o
	}
	return &onceListener{listener: l}
}

func (o *onceListener) OnResponse(response QueryResponse) {
	o.once.Do(func() {
		if response.Rows == nil {
			response.Rows = []types.Row{}
		}
		o.listener.OnResponse(response)
	})
}

func (o *onceListener) OnFailure(err error) {
	o.once.Do(func() {
		o.listener.OnFailure(err)
	})
}

type outcome struct {
	response QueryResponse
	err      error
}

// ResultChannel is a listener that can be waited on.
type ResultChannel struct {
	results chan outcome
}

func NewResultChannel() *ResultChannel {
	return &ResultChannel{results: make(chan outcome, 1)}
}

func (r *ResultChannel) OnResponse(response QueryResponse) {
	r.send(outcome{response: response})
}

func (r *ResultChannel) OnFailure(err error) {
	r.send(outcome{err: err})
}

func (r *ResultChannel) send(o outcome) {
	select {
	case r.results <- o:
	default:
	}
}

// Wait blocks until an outcome arrives or ctx is done.
func (r *ResultChannel) Wait(ctx context.Context) (QueryResponse, error) {
	select {
	case o := <-r.results:
		return o.response, o.err
	case <-ctx.Done():
		return QueryResponse{}, ctx.Err()
	}
}
