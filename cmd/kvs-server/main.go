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

// Command kvs-server runs the kvsd TCP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ixxchan/kvs/archive"
	"github.com/ixxchan/kvs/config"
	"github.com/ixxchan/kvs/kvs"
	"github.com/ixxchan/kvs/pool"
	"github.com/ixxchan/kvs/server"
)

// archiveInterval is how often a running server seals and uploads a
// snapshot of its log when --archive-bucket is set.
const archiveInterval = 15 * time.Minute

// runArchiveLoop seals and uploads a snapshot of e on every tick, until
// stop is closed. A failed archive attempt is logged and does not stop
// the loop; the next tick tries again.
func runArchiveLoop(a *archive.Archiver, e archive.Sealer, log *logrus.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(archiveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := a.ArchiveEngine(context.Background(), e, "log", time.Now()); err != nil {
				log.WithError(err).Warn("archive attempt failed")
			} else {
				log.Info("archived log snapshot")
			}
		}
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:4000", "address to listen on")
	engineFlag := flag.String("engine", "", "storage engine: kvs or sled (default: kvs, or prior marker)")
	dir := flag.String("dir", ".", "database directory")
	poolKind := flag.String("pool", "shared", "thread pool: direct, shared, or errgroup")
	poolSize := flag.Int("pool-size", 8, "worker count for shared/errgroup pools")
	cacheSize := flag.String("cache-size", "", "read cache capacity override, e.g. 64MB (approximate, entry-count based)")
	fsync := flag.Bool("fsync", false, "fsync the log after every commit")
	archiveBucket := flag.String("archive-bucket", "", "S3 bucket to archive sealed logs to (optional)")
	watchConfig := flag.String("watch-config", "", "path to a JSON config file to hot-reload tunables from (optional)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	engineKind, err := config.ResolveEngine(*dir, config.EngineKind(*engineFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	engineCfg := kvs.EngineConfig{FsyncOnCommit: *fsync}
	if *cacheSize != "" {
		n, err := config.ParseSize(*cacheSize)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		engineCfg.CacheCapacity = int(n)
	}

	var engine kvs.Engine
	switch engineKind {
	case config.EngineKvs:
		engine, err = kvs.Open(*dir, engineCfg)
	case config.EngineSled:
		engine, err = kvs.OpenBolt(*dir)
	default:
		err = fmt.Errorf("kvs: unknown engine %q", engineKind)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	config.RegisterShutdownHook(func() { engine.Close() })

	var p pool.ThreadPool
	switch *poolKind {
	case "direct":
		p = pool.NewNaivePool(*poolSize)
	case "errgroup":
		p = pool.NewErrgroupPool(*poolSize)
	default:
		p = pool.NewSharedQueuePool(*poolSize)
	}
	config.RegisterShutdownHook(func() { p.Close() })

	if *archiveBucket != "" {
		a, err := archive.New(context.Background(), archive.Config{Bucket: *archiveBucket})
		if err != nil {
			log.WithError(err).Warn("archive backend unavailable")
		} else if sealer, ok := engine.(archive.Sealer); ok {
			stop := make(chan struct{})
			go runArchiveLoop(a, sealer, log, stop)
			config.RegisterShutdownHook(func() { close(stop) })
		} else {
			log.Warn("selected engine does not support archival snapshots")
		}
	}

	if *watchConfig != "" {
		w, err := config.WatchFile(*watchConfig, func(t config.Tunables) {
			log.WithField("compaction_threshold", t.CompactionThreshold).Info("config reloaded")
		})
		if err != nil {
			log.WithError(err).Warn("config watch unavailable")
		} else {
			config.RegisterShutdownHook(func() { w.Close() })
		}
	}

	srv := server.New(engine, p, log)
	if err := srv.Run(*addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
