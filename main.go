// Command draftsync is the DraftSync command line client. Most
// subcommands talk to the local daemon over its socket, spawning it on
// demand; `draftsync daemon` runs the daemon itself in the foreground.
package main

import (
	"fmt"
	"os"

	"github.com/draftsync/draftsync/cmd"
)

// Release pipelines inject these with -ldflags; a plain `go build`
// reports itself as a source build with empty version fields.
var (
	version   string
	commit    string
	date      string
	buildType = "source"
)

func main() {
	args := cmd.BuildArgs{
		Version:   version,
		Commit:    commit,
		Date:      date,
		BuildType: buildType,
	}
	if err := cmd.Execute(os.Args, args); err != nil {
		fmt.Fprintln(os.Stderr, "draftsync:", err)
		os.Exit(1)
	}
}
