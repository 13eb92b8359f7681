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
package pool

import (
	"fmt"
	"runtime/debug"
)

// NaivePool spawns a fresh goroutine per job (§4.5 variant 1: "Direct").
// It exists as the simplest possible baseline; it has no bounded resource
// usage and no worker lifecycle to manage.
type NaivePool struct{}

// NewNaivePool constructs a direct pool. It ignores a worker count since a
// direct pool has none; the parameter exists so callers can select between
// pool constructors uniformly by a configured size.
func NewNaivePool(_ int) *NaivePool {
	return &NaivePool{}
}

// Spawn runs job on a new goroutine, recovering a panic so a single failing
// job never takes down the caller.
func (p *NaivePool) Spawn(job func()) {
	go runProtected(job)
}

// Close is a no-op: a NaivePool holds no resources between jobs.
func (p *NaivePool) Close() error { return nil }

func runProtected(job func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("pool: task panic: %v\n", r)
			debug.PrintStack()
		}
	}()
	job()
}

var _ ThreadPool = (*NaivePool)(nil)
