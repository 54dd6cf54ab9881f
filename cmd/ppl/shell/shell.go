/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dburkart/ppl/cmd/ppl/session"
	"github.com/dburkart/ppl/pkg/executor"
	"github.com/dburkart/ppl/pkg/ppl"
	"github.com/dburkart/ppl/pkg/ppl/types"
	"github.com/dburkart/ppl/pkg/repl"
)

var Command = &cobra.Command{
	Use:   "repl",
	Short: "Interactive terminal for running queries",

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)

		s, err := session.Open(log)
		if err != nil {
			return err
		}
		defer s.Close()

		return readlinePrompt(cmd.Context(), s, session.Request("").ResponseFormat())
	},
}

func listTables(s *session.Session) func(string) []string {
	return func(line string) []string {
		var options []string
		for _, name := range s.Storage.TableNames() {
			options = append(options, "source="+name)
		}
		return options
	}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func readlinePrompt(ctx context.Context, s *session.Session, format string) error {
	// Configure the completer
	sourceItem := readline.PcItemDynamic(listTables(s))

	completer := readline.NewPrefixCompleter(
		readline.PcItem("search", sourceItem),
		sourceItem,
		readline.PcItem(`\explain`, readline.PcItem("search", sourceItem), sourceItem),
		readline.PcItem(`\format`, readline.PcItem(ppl.FormatTable), readline.PcItem(ppl.FormatCSV), readline.PcItem(ppl.FormatJSON)),
		readline.PcItem(`\tables`),
		readline.PcItem(`\help`),
		readline.PcItem(`\quit`),
	)

	// Setup the readline executor
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mppl>\033[0m ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       `\quit`,

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()

	// Handle input
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd := repl.ParseCommand(line)
		switch cmd.Name {
		case repl.CommandQuit:
			return nil
		case repl.CommandHelp:
			if cmd.Arg != "" && cmd.Arg != "help" && cmd.Arg != "h" {
				fmt.Fprintf(out, "unknown command \\%s\n", cmd.Arg)
			}
			fmt.Fprintln(out, "usage:")
			fmt.Fprintln(out, completer.Tree("    "))
		case repl.CommandFormat:
			format = ppl.NewQueryRequest("", cmd.Arg).ResponseFormat()
			fmt.Fprintf(out, "output format is now %s\n", format)
		case repl.CommandTables:
			printTables(out, s, format)
		case repl.CommandExplain:
			explained, err := s.Service.Explain(ppl.NewQueryRequest(cmd.Arg, format))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprint(out, explained)
		case repl.CommandQuery:
			response, elapsed, err := s.Query(ctx, ppl.NewQueryRequest(cmd.Arg, format))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := repl.NewOutputWriter(out, format).Write(response); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintln(out, session.Summary(len(response.Rows), elapsed))
		}
		fmt.Fprintln(out)
	}

	rl.Clean()
	return nil
}

func printTables(out io.Writer, s *session.Session, format string) {
	var rows []types.Row
	for _, name := range s.Storage.TableNames() {
		table, err := s.Storage.Table(name)
		if err != nil {
			continue
		}

		fields := table.FieldTypes().Columns()
		described := make([]string, len(fields))
		for i, f := range fields {
			described[i] = f.Name + ":" + strings.ToLower(f.Type.String())
		}

		rows = append(rows, types.Row{
			"table":  types.MakeString(name),
			"rows":   types.MakeString(humanize.Comma(int64(table.Len()))),
			"fields": types.MakeString(strings.Join(described, ", ")),
		})
	}

	response := executor.QueryResponse{
		Schema: []types.Column{
			{Name: "table", Type: types.STRING},
			{Name: "rows", Type: types.STRING},
			{Name: "fields", Type: types.STRING},
		},
		Rows: rows,
	}
	if err := repl.NewOutputWriter(out, format).Write(response); err != nil {
		fmt.Fprintln(out, err)
	}
}
