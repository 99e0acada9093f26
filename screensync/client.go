// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/panescope/panescope/lib/codec"
)

// SnapshotClient is the transport the Syncer depends on. The production
// implementation is Client; tests substitute scripted fakes.
type SnapshotClient interface {
	// FetchSnapshot performs one snapshot request. Implementations
	// must honor ctx cancellation: the fetch controller cancels a
	// superseded attempt to tear down its connection, and engine
	// shutdown cancels everything in flight.
	FetchSnapshot(ctx context.Context, request SnapshotRequest) (*SnapshotResponse, error)
}

// dialTimeout covers only the connect phase. The backend socket is
// local; if connecting takes this long the daemon is gone.
const dialTimeout = 5 * time.Second

// maxResponseSize caps a single CBOR response. Sized for a compressed
// 64 MB screen plus framing.
const maxResponseSize = 32 * 1024 * 1024

// Client fetches snapshots from the backend's Unix socket. Each call
// opens a new connection (one-request-per-connection model), writes
// the request, reads the response, and closes.
type Client struct {
	socketPath string
}

// NewClient creates a snapshot client for the backend socket at
// socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// FetchSnapshot implements SnapshotClient.
//
// There is deliberately no read deadline: each poll tick supersedes
// the previous attempt, which cancels its ctx — that closes this
// connection and unblocks the read below. A fixed deadline would only
// add a second, slower recovery path.
func (client *Client) FetchSnapshot(ctx context.Context, request SnapshotRequest) (*SnapshotResponse, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", client.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", client.socketPath, err)
	}
	defer conn.Close()

	// Unblock the read below when the engine shuts down mid-request.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing snapshot request: %w", err)
	}

	// Half-close the write side so the server's read loop sees EOF
	// cleanly. CBOR is self-delimiting, so this is a courtesy.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response SnapshotResponse
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading snapshot response: %w", err)
	}

	return &response, nil
}
