/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package repl

import (
	"strings"
)

const (
	CommandQuery   = "QUERY"
	CommandExplain = "EXPLAIN"
	CommandFormat  = "FORMAT"
	CommandTables  = "TABLES"
	CommandHelp    = "HELP"
	CommandQuit    = "QUIT"
)

// Command is one line of REPL input. Anything not starting with a backslash
// is a query.
type Command struct {
	Name string
	Arg  string
}

// ParseCommand parses input from the command line
//
// This function assumes there is no '\n'
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, `\`) {
		return Command{Name: CommandQuery, Arg: line}
	}

	// all commands have a space after them, if not then they are command only
	// like \quit
	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "q", "quit", "exit":
		return Command{Name: CommandQuit}
	case "e", "explain":
		return Command{Name: CommandExplain, Arg: arg}
	case "f", "format":
		return Command{Name: CommandFormat, Arg: strings.ToLower(arg)}
	case "t", "tables":
		return Command{Name: CommandTables}
	}

	return Command{Name: CommandHelp, Arg: cmd}
}
