package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftsync/draftsync/internal/api"
	"github.com/draftsync/draftsync/internal/server"
)

const defaultPort = 4227

func main() {
	l := log.Default()
	s, err := api.NewApi(l, &api.Config{
		SaveURL:     os.Getenv("DRAFTSYNC_SAVE_URL"),
		UploadURL:   os.Getenv("DRAFTSYNC_UPLOAD_URL"),
		Token:       os.Getenv("DRAFTSYNC_TOKEN"),
		SaveTimeout: 30 * time.Second,
	}, &http.Client{})
	if err != nil {
		fmt.Println("draftsyncd:", err.Error())
		os.Exit(1)
	}
	defer s.Close()

	serv := server.NewServer(l, defaultPort)
	s.RegisterHandlers(serv)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	s.StartScheduler(ctx)

	if err := serv.Start(ctx); err != nil {
		fmt.Println("draftsyncd:", err.Error())
		os.Exit(1)
	}
}
