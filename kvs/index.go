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

import (
	"sync"

	"github.com/google/btree"
)

// indexEntry is one key -> LogIndex binding, ordered by Key so that
// compaction rewrites the log in a deterministic, key-sorted order.
type indexEntry struct {
	Key string
	LogIndex
}

func indexEntryLess(a, b indexEntry) bool {
	return a.Key < b.Key
}

// keyIndex is the in-memory index map of §3: key -> LogIndex, mutated
// exclusively and read concurrently. It is backed by a B-tree (rather than
// a bare map) so compaction can walk live entries in a stable order.
type keyIndex struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[indexEntry]
}

func newKeyIndex() *keyIndex {
	return &keyIndex{tree: btree.NewG(32, indexEntryLess)}
}

// get returns the LogIndex for key, if the key is currently live.
func (idx *keyIndex) get(key string) (LogIndex, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.tree.Get(indexEntry{Key: key})
	return e.LogIndex, ok
}

// set installs key -> li, returning whether the key was already present
// (i.e. this write supersedes an earlier one, incrementing dead-count).
func (idx *keyIndex) set(key string, li LogIndex) (existed bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, existed = idx.tree.ReplaceOrInsert(indexEntry{Key: key, LogIndex: li})
	return existed
}

// remove deletes key from the index, returning whether it had been present.
func (idx *keyIndex) remove(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, existed := idx.tree.Delete(indexEntry{Key: key})
	return existed
}

// ascend calls fn for every live entry in ascending key order, stopping
// early if fn returns false. Used by compaction to rewrite the log.
func (idx *keyIndex) ascend(fn func(key string, li LogIndex) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	idx.tree.Ascend(func(e indexEntry) bool {
		return fn(e.Key, e.LogIndex)
	})
}

// swap atomically installs the new on-disk layout compaction produced: it
// runs apply (the file rename and writer reopen) and rewrites every live
// entry's position under a single held write lock, so a concurrent reader
// taking the index's read lock (in get or readAt's re-check) can only ever
// observe the index fully before compaction or fully after it, never a
// state where the rename has happened but some entries still point at the
// pre-compaction file offsets. apply's error, if any, is returned without
// touching any index entry.
func (idx *keyIndex) swap(rewritten []indexEntry, apply func() error) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := apply(); err != nil {
		return err
	}
	for _, e := range rewritten {
		if _, ok := idx.tree.Get(indexEntry{Key: e.Key}); ok {
			idx.tree.ReplaceOrInsert(e)
		}
	}
	return nil
}

func (idx *keyIndex) len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}
