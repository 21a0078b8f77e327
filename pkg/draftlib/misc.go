package draftlib

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Size unit constants for byte conversions.
const (
	// B represents one byte.
	B int64 = 1
	// KB represents one kilobyte (1024 bytes).
	KB = 1024 * B
	// MB represents one megabyte (1024 kilobytes).
	MB = 1024 * KB
)

// Default scheduling and probing intervals.
const (
	DEF_DEBOUNCE_INTERVAL = 60 * time.Second
	DEF_MAXWAIT_INTERVAL  = 300 * time.Second
	DEF_UPLOAD_TIMEOUT    = 30 * time.Second
	DEF_PROBE_TIMEOUT     = 10 * time.Second

	DEF_MAX_CONTENT_SIZE = 10 * MB
)

// ConfigDirEnv is the environment variable name used to override the default
// configuration directory.
const ConfigDirEnv = "DRAFTSYNC_CONFIG_DIR"

var (
	// ConfigDir is the absolute path to the draftsync configuration directory.
	ConfigDir string
	// DraftDBPath is the absolute path to the fallback draft database.
	DraftDBPath string
)

// osFs backs real config-dir operations; tests swap it for a MemMapFs.
var osFs = afero.NewOsFs()

func init() {
	dir := os.Getenv(ConfigDirEnv)
	if dir == "" {
		dir = defaultConfigDir()
	}
	if err := setConfigDir(dir); err != nil {
		panic(err)
	}
}

func defaultConfigDir() string {
	cdr, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	if !dirExists(osFs, cdr) {
		if err := osFs.MkdirAll(cdr, 0755); err != nil {
			panic(err)
		}
	}
	return filepath.Join(cdr, "draftsync")
}

func setConfigDir(dir string) error {
	if dir == "" {
		return errors.New("config dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := osFs.MkdirAll(abs, 0755); err != nil {
		return err
	}
	ConfigDir = abs
	DraftDBPath = filepath.Join(abs, "drafts.db")
	return nil
}

// SetConfigDir sets the configuration directory to the specified path,
// creating it if it does not exist.
func SetConfigDir(dir string) error {
	return setConfigDir(dir)
}

func dirExists(fs afero.Fs, name string) bool {
	ok, err := afero.DirExists(fs, name)
	return err == nil && ok
}

func dlog(l *log.Logger, s string, a ...any) {
	if l == nil {
		return
	}
	l.Printf(s+"\n", a...)
}
