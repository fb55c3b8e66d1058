// Package web provides the HTTP server and routing
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"backup-media-sync/internal/web/handlers"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	handlers *handlers.Handlers
	logger   *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(port string, h *handlers.Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	// Routes
	mux.HandleFunc("GET /{$}", h.Home)

	// Control API
	mux.HandleFunc("GET /api/status", h.GetStatus)
	mux.HandleFunc("POST /api/queues/{queue}/{action}", h.SetQueueSuspension)
	mux.HandleFunc("POST /api/backup/run", h.RunBackup)
	mux.HandleFunc("POST /api/disk/recheck", h.RecheckDiskSpace)
	mux.HandleFunc("PUT /api/plan", h.SetPlan)
	mux.HandleFunc("POST /api/attachments", h.IngestAttachment)
	mux.HandleFunc("POST /api/restore/attachments", h.RestoreAttachments)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server:   server,
		handlers: h,
		logger:   logger,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	port := strings.TrimPrefix(s.server.Addr, ":")
	host := localIP()

	s.logger.Info("Starting HTTP server",
		"addr", s.server.Addr,
		"url", fmt.Sprintf("http://%s:%s", host, port))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// localIP returns an address other machines on the LAN can reach the status page on
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	return pickLocalIP(addrs)
}

// pickLocalIP prefers 192.168.0.0/16, then any other private IPv4 address
func pickLocalIP(addrs []net.Addr) string {
	fallback := "localhost"
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() || !ip.IsPrivate() {
			continue
		}
		if ip[0] == 192 && ip[1] == 168 {
			return ip.String()
		}
		if fallback == "localhost" {
			fallback = ip.String()
		}
	}
	return fallback
}
