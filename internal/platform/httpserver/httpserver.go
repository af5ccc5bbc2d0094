// Package httpserver builds the process's HTTP server with timeouts sized
// for the registration workflow, whose slowest path is the profile retry
// loop.
package httpserver

import (
	"net/http"
	"time"
)

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Registration may sit through several profile attempts with backoff
		// before answering; keep this above the router's request timeout.
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
