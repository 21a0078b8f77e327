package server

import (
	"os"
	"path/filepath"

	"github.com/draftsync/draftsync/common"
)

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "draftsync.sock")
}

// cleanupSocket removes the Unix socket file. A missing file is not an
// error: the daemon may have fallen back to TCP.
func cleanupSocket() error {
	if err := os.Remove(socketPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func setSocketPermissions(path string) {
	_ = os.Chmod(path, 0700)
}
