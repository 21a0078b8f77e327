package draftcli

import (
	"net"
	"sync"
)

// NewClientForTesting creates a Client over an existing connection so
// tests can talk to an in-process server without spawning a daemon.
func NewClientForTesting(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		mu:   &sync.RWMutex{},
		d:    &Dispatcher{},
	}
}
