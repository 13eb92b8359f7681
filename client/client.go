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

// Package client implements the kvsd wire client (§4.7): one TCP
// connection, a streaming parser on the read half, a writer on the write
// half, and the three request/response round-trips.
package client

import (
	"fmt"
	"net"

	"github.com/ixxchan/kvs/protocol"
)

// Client holds one TCP connection to a kvsd server. It is single-threaded
// with respect to that connection; use separate Clients for parallelism.
type Client struct {
	conn net.Conn
	r    *protocol.Reader
	w    *protocol.Writer
}

// Connect opens a TCP connection to addr.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("kvs: connect %s: %w", addr, err)
	}
	return &Client{
		conn: conn,
		r:    protocol.NewReader(conn),
		w:    protocol.NewWriter(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req protocol.Request) (protocol.Response, error) {
	if err := c.w.WriteRequest(req); err != nil {
		return protocol.Response{}, fmt.Errorf("kvs: write request: %w", err)
	}
	var resp protocol.Response
	if err := c.r.ReadResponse(&resp); err != nil {
		return protocol.Response{}, fmt.Errorf("kvs: read response: %w", err)
	}
	return resp, nil
}

// Set stores key=value. Per §4.7, Ok on Response::Ok{None}; a
// Response::Ok{Some _} is a protocol violation.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(protocol.Request{Type: protocol.RequestSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	return okNone(resp)
}

// Get fetches key, returning ("", false, nil) when absent.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.roundTrip(protocol.Request{Type: protocol.RequestGet, Key: key})
	if err != nil {
		return "", false, err
	}
	switch resp.Type {
	case protocol.ResponseOk:
		if resp.Value == nil {
			return "", false, nil
		}
		return *resp.Value, true, nil
	case protocol.ResponseErr:
		return "", false, fmt.Errorf("%s", resp.Message)
	default:
		return "", false, &protocol.ProtocolError{Detail: fmt.Sprintf("unexpected response type %q", resp.Type)}
	}
}

// Remove deletes key. Per §4.7, Ok on Response::Ok{None}; the server
// reports a missing key as Response::Err("Key not found").
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(protocol.Request{Type: protocol.RequestRm, Key: key})
	if err != nil {
		return err
	}
	return okNone(resp)
}

func okNone(resp protocol.Response) error {
	switch resp.Type {
	case protocol.ResponseOk:
		if resp.Value != nil {
			return &protocol.ProtocolError{Detail: "expected Ok{None}, got Ok{Some _}"}
		}
		return nil
	case protocol.ResponseErr:
		return fmt.Errorf("%s", resp.Message)
	default:
		return &protocol.ProtocolError{Detail: fmt.Sprintf("unexpected response type %q", resp.Type)}
	}
}
