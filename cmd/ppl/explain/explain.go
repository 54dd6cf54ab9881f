/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package explain

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dburkart/ppl/cmd/ppl/session"
)

var Command = &cobra.Command{
	Use:   "explain <query>",
	Short: "Print the logical plan of a query without running it",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)

		s, err := session.Open(log)
		if err != nil {
			return err
		}
		defer s.Close()

		explained, err := s.Service.Explain(session.Request(args[0]))
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), explained)
		return nil
	},
}
