package api

import (
	"log/slog"

	"github.com/gorilla/mux"
)

// ServerBuilder creates a new instance of the elaboration service.
type ServerBuilder struct {
	addr   string
	logger *slog.Logger
}

// WithAddr sets the listen address.
func (b ServerBuilder) WithAddr(addr string) ServerBuilder {
	b.addr = addr
	return b
}

// WithLogger sets the logger.
func (b ServerBuilder) WithLogger(l *slog.Logger) ServerBuilder {
	b.logger = l
	return b
}

// Build creates the server.
func (b ServerBuilder) Build() *serverImpl {
	if b.addr == "" {
		b.addr = ":8080"
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	s := &serverImpl{
		addr:   b.addr,
		router: mux.NewRouter(),
		logger: b.logger,
	}
	s.routes()
	return s
}
