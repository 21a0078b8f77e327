package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creachadair/jrpc2"
)

// authFailure is the body written on a rejected request. RPC clients
// parse JSON-RPC responses, not HTTP status text, so the rejection is a
// proper error envelope carrying CodeUnauthorized.
type authFailure struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Error   *jrpc2.Error `json:"error"`
}

// requireToken gates next behind Bearer auth. An empty secret rejects
// everything: the RPC surface never runs open, it has to be enabled
// with an explicit secret.
func requireToken(secret string, next http.Handler) http.Handler {
	denied, _ := json.Marshal(authFailure{
		JSONRPC: "2.0",
		Error:   jrpc2.Errorf(CodeUnauthorized, "bearer token missing or invalid"),
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validToken(secret, r.Header.Get("Authorization")) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write(denied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validToken reports whether the Authorization header carries the
// secret as a Bearer token. The comparison is constant-time so response
// latency leaks nothing about how much of the token matched.
func validToken(secret, header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
