package api

import (
	"encoding/json"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/server"
)

// versionHandler returns the daemon's version information. It responds
// to UPDATE_VERSION requests with the version, commit hash, and build
// type that were set when the daemon was started.
func (s *Api) versionHandler(_ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_VERSION, &common.VersionResponse{
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
		BuildType: s.cfg.BuildType,
	}, nil
}
