package api

import (
	"net/http"
	"time"

	"github.com/Prem931993/buytown-sub000/pkg/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second

	// ShutdownTimeout bounds graceful drain on SIGTERM.
	ShutdownTimeout = 20 * time.Second
)

// NewServer wraps handler in the http.Server cmd/api runs. port overrides
// the configured one when set.
func NewServer(cfg *config.Config, port string, handler http.Handler) *http.Server {
	if port == "" {
		port = cfg.App.Port
	}
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
