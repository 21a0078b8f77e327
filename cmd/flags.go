package cmd

import "github.com/urfave/cli"

var (
	docId            string
	docVersion       string
	debounceSeconds  int
	maxWaitSeconds   int
	discardRecovered bool

	altTexts cli.StringSlice

	scanConcurrency int64
	scanTimeout     int
	scanReset       bool

	daemonPort   int
	rpcPort      int
	rpcSecret    string
	rpcListenAll bool
)

var openFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "doc, d",
		Usage:       "document identifier on the remote endpoint",
		Destination: &docId,
	},
	cli.StringFlag{
		Name:        "doc-version, V",
		Usage:       "last known version of the document",
		Destination: &docVersion,
	},
	cli.IntFlag{
		Name:        "debounce, b",
		Usage:       "seconds of idle time before an auto-save fires",
		Destination: &debounceSeconds,
	},
	cli.IntFlag{
		Name:        "max-wait, w",
		Usage:       "maximum seconds a dirty session may go unsaved",
		Destination: &maxWaitSeconds,
	},
	cli.BoolFlag{
		Name:        "discard-recovered, D",
		Usage:       "discard any locally recovered draft instead of returning it",
		Destination: &discardRecovered,
	},
}

var uploadFlags = []cli.Flag{
	cli.StringSliceFlag{
		Name:  "alt, a",
		Usage: "alt text for the file at the same position (repeatable)",
		Value: &altTexts,
	},
}

var scanFlags = []cli.Flag{
	cli.Int64Flag{
		Name:        "concurrency, c",
		Usage:       "maximum number of URLs probed at once",
		Destination: &scanConcurrency,
	},
	cli.IntFlag{
		Name:        "timeout, t",
		Usage:       "per-URL probe timeout in seconds",
		Destination: &scanTimeout,
	},
	cli.BoolFlag{
		Name:        "reset, r",
		Usage:       "clear the session's scan state and any recurring schedule",
		Destination: &scanReset,
	},
}

var daemonFlags = []cli.Flag{
	cli.IntFlag{
		Name:        "port, p",
		Usage:       "TCP fallback port for client connections",
		Destination: &daemonPort,
	},
	cli.IntFlag{
		Name:        "rpc-port",
		Usage:       "port for the JSON-RPC endpoint (0 disables it)",
		Destination: &rpcPort,
		EnvVar:      "DRAFTSYNC_RPC_PORT",
	},
	cli.StringFlag{
		Name:        "rpc-secret",
		Usage:       "bearer token required by the JSON-RPC endpoint",
		Destination: &rpcSecret,
		EnvVar:      "DRAFTSYNC_RPC_SECRET",
	},
	cli.BoolFlag{
		Name:        "rpc-listen-all",
		Usage:       "bind the JSON-RPC endpoint on all interfaces",
		Destination: &rpcListenAll,
		EnvVar:      "DRAFTSYNC_RPC_LISTEN_ALL",
	},
}
