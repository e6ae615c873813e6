// Package netutil provides network utility functions for port checking.
package netutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// pollInterval is the delay between connection attempts.
	pollInterval = 500 * time.Millisecond

	// dialTimeout bounds a single connection attempt.
	dialTimeout = 2 * time.Second
)

// WaitForPort waits until host accepts TCP connections on port, polling
// until the timeout is reached.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var dialer net.Dialer
	for {
		dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
		conn, err := dialer.DialContext(dialCtx, "tcp", address)
		dialCancel()
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout waiting for %s: %w", address, err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
