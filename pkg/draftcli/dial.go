//go:build !windows

package draftcli

import (
	"fmt"
	"net"
	"time"
)

const dialTimeout = 3 * time.Second

func dialFunc(network, address string) (net.Conn, error) {
	return net.DialTimeout(network, address, dialTimeout)
}

// dial establishes a connection to the daemon. The Unix socket is tried
// first, then TCP; DRAFTSYNC_FORCE_TCP=1 skips the socket entirely.
func dial() (net.Conn, error) {
	if forceTCP() {
		debugLog("forcing TCP connection to %s", tcpAddress())
		return dialFunc("tcp", tcpAddress())
	}
	debugLog("attempting connection via unix socket at %s", socketPath())
	conn, unixErr := dialFunc("unix", socketPath())
	if unixErr != nil {
		debugLog("unix socket connection failed: %v, falling back to TCP", unixErr)
		conn, err := dialFunc("tcp", tcpAddress())
		if err != nil {
			return nil, fmt.Errorf("failed to connect: unix socket error: %v; tcp error: %w", unixErr, err)
		}
		return conn, nil
	}
	return conn, nil
}
