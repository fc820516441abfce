package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Write timeout stays generous because ledger
// exports for a full year can be slow on large residences.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
