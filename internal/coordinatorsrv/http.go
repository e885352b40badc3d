package coordinatorsrv

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer exposes /healthz and /metrics, the coordinator's operational
// surface alongside its TCP listener.
type HTTPServer struct {
	coordinator *Coordinator
	port        int
}

// NewHTTPServer builds the coordinator's HTTP side.
func NewHTTPServer(c *Coordinator, port int) *HTTPServer {
	return &HTTPServer{coordinator: c, port: port}
}

// ListenAndServe blocks serving /healthz and /metrics.
func (s *HTTPServer) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", s.metricsHandler())

	addr := fmt.Sprintf(":%d", s.port)
	s.coordinator.logger.Info().Str("addr", addr).Msg("HTTP server listening")
	return http.ListenAndServe(addr, s.loggingMiddleware(mux))
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *HTTPServer) metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.coordinator.refreshMetrics()
		promhttp.Handler().ServeHTTP(w, r)
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.coordinator.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("http request")
		next.ServeHTTP(w, r)
	})
}
