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

// Package archive implements the optional backup facility described in
// SPEC_FULL.md §6: a point-in-time, lz4-compressed copy of a sealed log
// segment uploaded to an S3-compatible bucket. This is export/disaster
// recovery, not replication or live directory sharing — it never opens a
// second reader or writer against the database directory.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pierrec/lz4/v4"
)

// Config names the S3-compatible bucket an Archiver uploads to, mirroring
// the teacher's S3Factory field set (storage/persistence-s3.go) narrowed to
// what a single-file backup needs.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool
}

// Archiver uploads lz4-compressed snapshots of a log file to S3.
type Archiver struct {
	cfg    Config
	client *s3.Client
}

// New builds an Archiver, loading AWS/S3-compatible credentials the same
// way the teacher's S3Storage.ensureOpen does: static credentials if given,
// otherwise the default provider chain.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("kvs: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	return &Archiver{cfg: cfg, client: s3.NewFromConfig(awsCfg, s3Opts...)}, nil
}

// ArchiveFile lz4-compresses logPath and uploads it under
// "<prefix>/<name>.lz4", where name is a caller-supplied label (see
// TimestampedName).
func (a *Archiver) ArchiveFile(ctx context.Context, logPath, name string) error {
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("kvs: open log for archival: %w", err)
	}
	defer f.Close()

	compressed, err := compress(f)
	if err != nil {
		return err
	}

	key := a.key(name + ".lz4")
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(compressed.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("kvs: upload archive: %w", err)
	}
	return nil
}

// RestoreFile downloads and lz4-decompresses the archive named name,
// writing the result to destPath.
func (a *Archiver) RestoreFile(ctx context.Context, name, destPath string) error {
	key := a.key(name + ".lz4")
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("kvs: download archive: %w", err)
	}
	defer resp.Body.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("kvs: create restore destination: %w", err)
	}
	defer out.Close()

	if err := decompress(resp.Body, out); err != nil {
		return err
	}
	return nil
}

func (a *Archiver) key(name string) string {
	if a.cfg.Prefix == "" {
		return name
	}
	return a.cfg.Prefix + "/" + name
}

// compress lz4-compresses all of r into an in-memory buffer.
func compress(r io.Reader) (*bytes.Buffer, error) {
	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := io.Copy(zw, r); err != nil {
		return nil, fmt.Errorf("kvs: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("kvs: finalize lz4 stream: %w", err)
	}
	return &compressed, nil
}

// decompress streams the lz4-compressed contents of r into w.
func decompress(r io.Reader, w io.Writer) error {
	zr := lz4.NewReader(r)
	if _, err := io.Copy(w, zr); err != nil {
		return fmt.Errorf("kvs: decompress: %w", err)
	}
	return nil
}

// TimestampedName builds an archive name from a label and an explicit
// instant, keeping time.Now() calls at the caller's discretion.
func TimestampedName(label string, at time.Time) string {
	return fmt.Sprintf("%s-%s", label, at.UTC().Format("20060102T150405Z"))
}

// Sealer is implemented by engines that can produce a clean, single-file
// on-disk snapshot to archive. Only the log-structured engine does (its
// log can carry garbage between compactions); the bbolt adapter manages
// its own durable file directly and has no separate seal step, so it does
// not implement this interface.
type Sealer interface {
	Seal() (path string, err error)
}

// ArchiveEngine seals e and uploads the resulting snapshot under a
// timestamped name built from label and at. This is the admin operation
// described for the server: export-only, never a second live reader or
// writer of the engine's directory.
func (a *Archiver) ArchiveEngine(ctx context.Context, e Sealer, label string, at time.Time) error {
	path, err := e.Seal()
	if err != nil {
		return fmt.Errorf("kvs: seal engine for archival: %w", err)
	}
	return a.ArchiveFile(ctx, path, TimestampedName(label, at))
}
