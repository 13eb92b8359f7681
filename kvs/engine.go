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
package kvs

// Engine is the capability set {set, get, remove} shared by every worker
// thread through a cheaply cloneable handle. A clone refers to the exact
// same underlying state; there is no "owning" handle.
//
// Concurrency: implementations must allow Set/Get/Remove to be called
// concurrently from clones on different goroutines and produce a result
// consistent with some sequential order of the concurrent calls
// (linearizable at the key level).
type Engine interface {
	// Set binds key to value. A successful Set is durable enough that a
	// crash right after it returns, followed by reopening the directory,
	// observes the just-written value (see EngineConfig.FsyncOnCommit for
	// how far that durability goes).
	Set(key, value string) error

	// Get returns the current value of key. A miss is reported as
	// found == false with a nil error; only unexpected failures return an
	// error.
	Get(key string) (value string, found bool, err error)

	// Remove deletes key. It returns ErrKeyNotFound if the key has no
	// live value.
	Remove(key string) error

	// Clone returns a handle sharing this engine's underlying state. The
	// clone is cheap: no log data is copied.
	Clone() Engine

	// Close releases the engine's file handles. It does not affect other
	// outstanding clones' ability to keep operating; the underlying state
	// is only torn down once every clone and the original are closed.
	Close() error
}
