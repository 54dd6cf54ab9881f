/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dburkart/ppl/pkg/common/failure"
	"github.com/dburkart/ppl/pkg/ppl"
)

func TestSummary(t *testing.T) {
	assert.Equal(t, "1 row in 2ms", Summary(1, 2*time.Millisecond))
	assert.Equal(t, "12,345 rows in 1.5s", Summary(12345, 1500*time.Millisecond))
	assert.Equal(t, "0 rows in 0s", Summary(0, 0))
}

func TestRequestUsesConfiguredFormat(t *testing.T) {
	viper.Set("query.format", "csv")
	defer viper.Set("query.format", "")

	assert.Equal(t, ppl.FormatCSV, Request("source=t").ResponseFormat())
}

func TestOpenAndQuery(t *testing.T) {
	viper.Set("data", "testdata/people.yaml")
	viper.Set("executor.workers", 2)
	defer viper.Set("data", "")

	s, err := Open(zerolog.Nop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	assert.Equal(t, []string{"people", "t"}, s.Storage.TableNames())

	response, elapsed, err := s.Query(context.Background(), Request("source=people city=\"oslo\" | sort name | fields name"))
	require.NoError(t, err)
	assert.Len(t, response.Rows, 2)
	assert.Equal(t, "bob", response.Rows[0].Get("name").String())
	assert.True(t, elapsed > 0)

	_, _, err = s.Query(context.Background(), Request("source=nowhere"))
	assert.True(t, failure.Is(err, failure.Binding))
}

func TestOpenMissingDataset(t *testing.T) {
	viper.Set("data", "testdata/missing.yaml")
	defer viper.Set("data", "")

	_, err := Open(zerolog.Nop())
	assert.Error(t, err)
}
