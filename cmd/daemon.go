package cmd

import (
	"log"
	"net/http"

	"github.com/draftsync/draftsync/cmd/common"
	"github.com/draftsync/draftsync/internal/api"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/urfave/cli"
)

func daemon(ctx *cli.Context) error {
	l := log.Default()

	if err := WritePidFile(); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "pid_file", err)
		return nil
	}
	defer RemovePidFile()

	s, err := api.NewApi(l, getApiConfig(), &http.Client{})
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "new_api", err)
		return nil
	}
	defer s.Close()

	port := daemonPort
	if port <= 0 {
		port = DEF_PORT
	}
	serv := server.NewServer(l, port)
	s.RegisterHandlers(serv)

	runCtx, cancel := setupShutdownHandler()
	defer cancel()
	s.StartScheduler(runCtx)

	if rpcPort > 0 {
		notifier := server.NewRPCNotifier(l)
		rs := server.NewRPCServer(l, &server.RPCConfig{
			Secret:    rpcSecret,
			ListenAll: rpcListenAll,
			Port:      rpcPort,
		}, s.RPCMethods(), notifier)
		serv.SetRPC(rs)
		s.SetNotifier(notifier)
	}

	return serv.Start(runCtx)
}
