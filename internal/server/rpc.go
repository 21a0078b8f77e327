package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	cws "github.com/coder/websocket"
)

// Custom JSON-RPC error codes for editing operations. CodeUnauthorized
// is also what the HTTP auth wrapper reports, so RPC clients see one
// error taxonomy regardless of which layer rejected them.
const (
	CodeSessionNotFound = jrpc2.Code(-32001)
	CodeSessionHalted   = jrpc2.Code(-32002)
	CodeUnauthorized    = jrpc2.Code(-32003)
	CodeInvalidParams   = jrpc2.Code(-32602)
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token (required -- empty means RPC disabled)
	ListenAll bool   // If true, bind to 0.0.0.0 instead of 127.0.0.1
	Port      int
}

// RPCServer exposes the daemon's methods over JSON-RPC 2.0, both via an
// HTTP bridge and via WebSocket connections that additionally receive
// push notifications for session events.
type RPCServer struct {
	bridge   jhttp.Bridge
	methods  handler.Map
	notifier *RPCNotifier
	secret   string
	addr     string
	log      *log.Logger
	server   *http.Server
	mu       sync.Mutex
}

// NewRPCServer creates an RPCServer serving the given method map. The
// method map is built by the API layer; the server contributes
// transport, auth and push notification plumbing.
func NewRPCServer(l *log.Logger, cfg *RPCConfig, methods handler.Map, notifier *RPCNotifier) *RPCServer {
	host := "127.0.0.1"
	if cfg.ListenAll {
		host = "0.0.0.0"
	}
	return &RPCServer{
		bridge:   jhttp.NewBridge(methods, nil),
		methods:  methods,
		notifier: notifier,
		secret:   cfg.Secret,
		addr:     fmt.Sprintf("%s:%d", host, cfg.Port),
		log:      l,
	}
}

// Notifier returns the push notifier shared with the API layer.
func (rs *RPCServer) Notifier() *RPCNotifier {
	return rs.notifier
}

// handleWS upgrades the request and runs a jrpc2 server over the
// WebSocket connection. The server is registered with the notifier for
// the lifetime of the connection so the client receives pushes.
func (rs *RPCServer) handleWS(w http.ResponseWriter, r *http.Request) {
	if !validToken(rs.secret, r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		rs.log.Println("Error accepting rpc websocket:", err.Error())
		return
	}
	ch := newWSChannel(r.Context(), conn)
	srv := jrpc2.NewServer(rs.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	rs.notifier.Register(srv)
	defer rs.notifier.Unregister(srv)
	_ = srv.Wait()
}

func (rs *RPCServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/rpc", requireToken(rs.secret, rs.bridge))
	mux.HandleFunc("/rpc/ws", rs.handleWS)
	return mux
}

func (rs *RPCServer) Start() error {
	rs.mu.Lock()
	rs.server = &http.Server{
		Addr:    rs.addr,
		Handler: rs.handler(),
	}
	rs.mu.Unlock()

	err := rs.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and closes the jrpc2 bridge, releasing
// its internal goroutines.
func (rs *RPCServer) Shutdown(ctx context.Context) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.bridge.Close()
	if rs.server == nil {
		return nil
	}
	return rs.server.Shutdown(ctx)
}
