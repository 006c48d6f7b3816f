package server

import (
	"context"
	"net/http"
	"time"

	"docverify/internal/logger"
)

// Server wires the handlers into an http.Server.
type Server struct {
	httpServer *http.Server
}

// New builds the server with its routes and middleware.
func New(port string, handler *Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/extract-text", handler.ExtractTextHandler)
	mux.HandleFunc("/health", handler.HealthHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           corsMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	log := logger.WithComponent("server")
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds permissive CORS headers for browser callers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
