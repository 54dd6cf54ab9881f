/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dburkart/ppl/cmd/ppl/session"
	"github.com/dburkart/ppl/pkg/ppl"
	"github.com/dburkart/ppl/pkg/repl"
)

var Command = &cobra.Command{
	Use:   "query [query]",
	Short: "Run a single query and print its results",
	Long:  "Run a single query and print its results. The query is read from standard input when not given as an argument.",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)

		text, err := queryText(cmd, args)
		if err != nil {
			return err
		}

		s, err := session.Open(log)
		if err != nil {
			return err
		}
		defer s.Close()

		request := session.Request(text)
		response, elapsed, err := s.Query(cmd.Context(), request)
		if err != nil {
			return err
		}

		format := request.ResponseFormat()
		if err := repl.NewOutputWriter(cmd.OutOrStdout(), format).Write(response); err != nil {
			return errors.Wrap(err, "writing results")
		}
		if format == ppl.FormatTable {
			fmt.Fprintln(cmd.ErrOrStderr(), session.Summary(len(response.Rows), elapsed))
		}

		return nil
	},
}

func queryText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "reading query")
	}
	return strings.TrimSpace(string(b)), nil
}
