// Package health, deploy probe'ları ve ops dashboard'u için küçük bir HTTP
// endpoint sunar. Bot'un asıl trafiği Discord gateway üzerindendir; bu
// server sadece "süreç ayakta mı, gateway bağlı mı" sorusunu yanıtlar.
package health

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"
)

// StatusFunc, gateway bağlantı durumunu rapor eder (main.go wire-up'ında
// discordgo session'dan beslenir). Health paketi discordgo'ya bağımlı
// olmasın diye fonksiyon olarak enjekte edilir.
type StatusFunc func() bool

// Server, health endpoint'ini saran struct.
type Server struct {
	srv *http.Server
}

// NewServer, verilen adreste health endpoint'i hazırlar.
func NewServer(addr string, gatewayUp StatusFunc) *Server {
	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := "ok"
		code := http.StatusOK
		if !gatewayUp() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         status,
			"service":        "otelbot",
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		})
	})

	// Ops dashboard tarayıcıdan sorguluyor — CORS gerekli.
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}).Handler(mux)

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Start, server'ı kendi goroutine'inde başlatır.
func (s *Server) Start() {
	go func() {
		log.Printf("[health] listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[health] server error: %v", err)
		}
	}()
}

// Shutdown, server'ı kapatır.
func (s *Server) Shutdown() {
	if err := s.srv.Close(); err != nil {
		log.Printf("[health] shutdown error: %v", err)
	}
}
