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

// Command kvs-client is the kvsd CLI client: one-shot set/get/rm commands
// plus an interactive shell subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/ixxchan/kvs/client"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}

	addr, positional := extractAddr(args[1:])

	c, err := client.Connect(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer c.Close()

	switch args[0] {
	case "set":
		rest := positional
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "usage: kvs-client set KEY VALUE")
			return 1
		}
		if err := c.Set(rest[0], rest[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "get":
		rest := positional
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "usage: kvs-client get KEY")
			return 1
		}
		value, found, err := c.Get(rest[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !found {
			fmt.Println("Key not found")
			return 0
		}
		fmt.Println(value)
		return 0

	case "rm":
		rest := positional
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "usage: kvs-client rm KEY")
			return 1
		}
		if err := c.Remove(rest[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "shell":
		if err := client.Shell(c, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kvs-client {set KEY VALUE | get KEY | rm KEY | shell} [--addr IP:PORT]")
}

// extractAddr pulls an "--addr IP:PORT" (or "--addr=IP:PORT") pair out of
// args regardless of its position relative to the subcommand's own
// positional arguments, since Go's flag package stops parsing at the first
// non-flag token and the CLI surface here interleaves the two.
func extractAddr(args []string) (addr string, positional []string) {
	addr = "127.0.0.1:4000"
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--addr" || a == "-addr":
			if i+1 < len(args) {
				addr = args[i+1]
				i++
			}
		case len(a) > len("--addr=") && a[:len("--addr=")] == "--addr=":
			addr = a[len("--addr="):]
		default:
			positional = append(positional, a)
		}
	}
	return addr, positional
}
