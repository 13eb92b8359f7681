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
package archive

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSealer struct{ err error }

func (f failingSealer) Seal() (string, error) { return "", f.err }

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200)

	compressed, err := compress(strings.NewReader(original))
	require.NoError(t, err)
	assert.Less(t, compressed.Len(), len(original))

	var out bytes.Buffer
	require.NoError(t, decompress(compressed, &out))
	assert.Equal(t, original, out.String())
}

func TestCompressEmptyInput(t *testing.T) {
	compressed, err := compress(strings.NewReader(""))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, decompress(compressed, &out))
	assert.Equal(t, "", out.String())
}

func TestTimestampedName(t *testing.T) {
	at := time.Date(2026, 7, 29, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "log-20260729T123000Z", TimestampedName("log", at))
}

func TestArchiverKeyPrefix(t *testing.T) {
	a := &Archiver{cfg: Config{Prefix: "backups"}}
	assert.Equal(t, "backups/log-1.lz4", a.key("log-1.lz4"))

	a2 := &Archiver{cfg: Config{}}
	assert.Equal(t, "log-1.lz4", a2.key("log-1.lz4"))
}

func TestArchiveEngineSurfacesSealError(t *testing.T) {
	sealErr := errors.New("boom")
	a := &Archiver{cfg: Config{Bucket: "unused"}}

	err := a.ArchiveEngine(context.Background(), failingSealer{err: sealErr}, "log", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, sealErr)
}
