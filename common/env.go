// Package common provides shared types and constants used across the
// draftsync client-server communication layer.
package common

// Environment variable names for configuration.
const (
	// SocketPathEnv is the environment variable for custom socket path.
	SocketPathEnv = "DRAFTSYNC_SOCKET_PATH"

	// TCPPortEnv is the environment variable for custom TCP port.
	TCPPortEnv = "DRAFTSYNC_TCP_PORT"

	// ForceTCPEnv is the environment variable to force TCP connections.
	ForceTCPEnv = "DRAFTSYNC_FORCE_TCP"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "DRAFTSYNC_DEBUG"
)
