package draftcli

import (
	"fmt"
	"net"
	"time"
)

const (
	daemonStartTimeout = 3 * time.Second
	socketPollInterval = 50 * time.Millisecond
	socketDialTimeout  = 100 * time.Millisecond
)

// ensureDaemon checks if the daemon is running and spawns it if not.
// Returns nil if the daemon is running or was successfully started.
func ensureDaemon() error {
	if isDaemonRunning() {
		return nil
	}
	if err := spawnDaemon(); err != nil {
		return err
	}
	return waitForSocket(daemonStartTimeout)
}

// isDaemonRunning probes the daemon transport with a short dial.
func isDaemonRunning() bool {
	var (
		conn net.Conn
		err  error
	)
	if forceTCP() {
		conn, err = net.DialTimeout("tcp", tcpAddress(), socketDialTimeout)
	} else {
		conn, err = net.DialTimeout("unix", socketPath(), socketDialTimeout)
		if err != nil {
			conn, err = net.DialTimeout("tcp", tcpAddress(), socketDialTimeout)
		}
	}
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// waitForSocket polls until the daemon accepts connections or the timeout expires.
func waitForSocket(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if isDaemonRunning() {
			return nil
		}
		time.Sleep(socketPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
