package cmd

import (
	"os"
	"time"

	"github.com/draftsync/draftsync/internal/api"
)

const (
	DEF_PORT         = 4227
	DEF_SAVE_TIMEOUT = time.Second * 30
)

// Endpoint configuration environment variables.
const (
	saveURLEnv   = "DRAFTSYNC_SAVE_URL"
	uploadURLEnv = "DRAFTSYNC_UPLOAD_URL"
	tokenEnv     = "DRAFTSYNC_TOKEN"
)

// getApiConfig assembles the daemon configuration from the environment
// and build metadata.
func getApiConfig() *api.Config {
	return &api.Config{
		SaveURL:     os.Getenv(saveURLEnv),
		UploadURL:   os.Getenv(uploadURLEnv),
		Token:       os.Getenv(tokenEnv),
		SaveTimeout: DEF_SAVE_TIMEOUT,
		Version:     currentBuildArgs.Version,
		Commit:      currentBuildArgs.Commit,
		BuildType:   currentBuildArgs.BuildType,
	}
}
