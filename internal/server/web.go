package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	cws "github.com/coder/websocket"
)

// WebServer streams session updates to WebSocket clients. A client
// subscribes by sending a JSON frame naming a session id; from then on
// it receives that session's broadcast frames as binary messages. A
// single connection may subscribe to any number of sessions.
type WebServer struct {
	port   int
	l      *log.Logger
	pool   *Pool
	server *http.Server
	mu     sync.Mutex
}

type subscribeRequest struct {
	SessionId string `json:"session_id"`
}

func NewWebServer(l *log.Logger, pool *Pool, port int) *WebServer {
	return &WebServer{port: port, l: l, pool: pool}
}

func (s *WebServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.l.Println("Error accepting websocket:", err.Error())
		return
	}
	defer conn.Close(cws.StatusNormalClosure, "")

	ctx := r.Context()
	nc := cws.NetConn(context.Background(), conn, cws.MessageBinary)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var sub subscribeRequest
		if err := json.Unmarshal(data, &sub); err != nil {
			s.l.Println("Error unmarshalling subscribe frame:", err.Error())
			continue
		}
		if sub.SessionId == "" {
			continue
		}
		s.pool.AddConn(sub.SessionId, nc)
		// replay the sticky error so late subscribers learn about
		// failures that happened before they attached
		if e := s.pool.GetError(sub.SessionId); e != nil {
			_ = s.pool.Broadcast(sub.SessionId, InitError(e))
		}
	}
}

func (s *WebServer) addr() string {
	return fmt.Sprintf(":%d", s.port)
}

func (s *WebServer) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.addr(),
		Handler: http.HandlerFunc(s.handleConnection),
	}
	s.mu.Unlock()

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
