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

// Package pool provides the three interchangeable thread-pool
// implementations the server dispatches connection handlers onto: a direct
// one-goroutine-per-job pool, a bounded shared-queue pool with panic
// containment, and an errgroup/semaphore-bounded pool.
package pool

// ThreadPool is the contract all three variants satisfy: submit a zero-arg
// job for execution on some worker. A job that panics must not bring down
// the pool or any other job.
type ThreadPool interface {
	Spawn(job func())
	// Close releases pool resources. Jobs already running are allowed to
	// finish; whether Close waits for them depends on the implementation
	// (NaivePool does not; SharedQueuePool and ErrgroupPool do).
	Close() error
}
