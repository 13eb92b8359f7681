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

// Package server implements the TCP front end of kvsd (§4.6): bind, accept
// forever, and dispatch one handler per connection onto a pluggable
// ThreadPool.
package server

import (
	"errors"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ixxchan/kvs/kvs"
	"github.com/ixxchan/kvs/pool"
	"github.com/ixxchan/kvs/protocol"
)

// Server binds addr, accepts connections forever, and dispatches each one
// to the configured pool. It never tears down the listener on a client's
// account; only closing the listener stops accepting.
type Server struct {
	engine kvs.Engine
	pool   pool.ThreadPool
	log    *logrus.Logger
}

// New builds a Server around engine, running handlers on pool. log may be
// nil, in which case a default logrus logger is used.
func New(engine kvs.Engine, p pool.ThreadPool, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{engine: engine, pool: p, log: log}
}

// Run binds addr and accepts connections until the listener is closed.
// A listener Accept error is logged and accepting continues, per §4.6:
// "The server never tears down the listener on client errors."
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	s.log.WithField("addr", addr).Info("kvsd listening")
	return s.Serve(ln)
}

// Serve accepts connections on ln until it is closed, dispatching each to
// the configured pool. Exposed separately from Run so callers (and tests)
// that already hold a bound listener can reuse the dispatch loop without
// going through a fresh net.Listen.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.WithError(err).Warn("accept error, continuing")
			continue
		}
		s.handleConn(conn)
	}
}

// handleConn clones the engine handle and enqueues a handler task on the
// pool, per §4.6 step "clone the engine handle and enqueue a handler task".
func (s *Server) handleConn(conn net.Conn) {
	connID := uuid.New().String()[:8]
	engine := s.engine.Clone()
	log := s.log.WithFields(logrus.Fields{
		"conn":   connID,
		"remote": conn.RemoteAddr().String(),
	})
	s.pool.Spawn(func() {
		defer conn.Close()
		defer engine.Close()
		serveConn(conn, engine, log)
	})
}

// serveConn streams requests from conn, dispatching each to engine and
// writing back exactly one response per request, until an I/O or decode
// error ends the loop (§4.6 steps 2-4).
func serveConn(conn net.Conn, engine kvs.Engine, log *logrus.Entry) {
	r := protocol.NewReader(conn)
	w := protocol.NewWriter(conn)

	for {
		var req protocol.Request
		if err := r.ReadRequest(&req); err != nil {
			if !isCleanClose(err) {
				log.WithError(err).Debug("connection ended")
			}
			return
		}

		resp := dispatch(engine, req)
		if err := w.WriteResponse(resp); err != nil {
			log.WithError(err).Debug("write error, closing connection")
			return
		}
	}
}

func isCleanClose(err error) bool {
	return errors.Is(err, net.ErrClosed) || err.Error() == "EOF"
}

// dispatch applies one request to engine and converts the outcome to a
// Response, per spec.md §4.1's Set/Rm -> Ok{None}, Get -> Ok{value|None},
// any engine failure -> Err{message} mapping.
func dispatch(engine kvs.Engine, req protocol.Request) protocol.Response {
	switch req.Type {
	case protocol.RequestSet:
		if err := engine.Set(req.Key, req.Value); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OkNone()

	case protocol.RequestGet:
		value, found, err := engine.Get(req.Key)
		if err != nil {
			return protocol.Err(err.Error())
		}
		if !found {
			return protocol.OkNone()
		}
		return protocol.OkValue(value)

	case protocol.RequestRm:
		if err := engine.Remove(req.Key); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OkNone()

	default:
		return protocol.Err("unknown request type")
	}
}
