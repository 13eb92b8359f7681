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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltEngineSetGetRemove(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenBolt(dir)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Set("k", "v"))
	v, ok, err := e.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, e.Remove("k"))
	_, ok, err = e.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, e.Remove("k"), ErrKeyNotFound)
}

func TestBoltEngineReopenPersists(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenBolt(dir)
	require.NoError(t, err)
	require.NoError(t, e.Set("k", "v"))
	require.NoError(t, e.Close())

	e2, err := OpenBolt(dir)
	require.NoError(t, err)
	defer e2.Close()
	v, ok, err := e2.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestBoltEngineCloneSharesState(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenBolt(dir)
	require.NoError(t, err)
	clone := e.Clone()
	require.NoError(t, clone.Set("k", "v"))
	v, ok, err := e.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
	require.NoError(t, clone.Close())
	require.NoError(t, e.Close())
}
