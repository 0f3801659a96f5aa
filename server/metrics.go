package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_service_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "status"})

	signInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_service_sign_ins_total",
		Help: "Sign-in attempts by outcome.",
	}, []string{"outcome"})

	refreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_service_refreshes_total",
		Help: "Refresh attempts by outcome.",
	}, []string{"outcome"})

	pinLockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_service_pin_lockouts_total",
		Help: "PIN records transitioned to locked.",
	})
)

func (s *Server) MetricsMiddleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next(sw, r)
			requestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		}
	}
}

func (s *Server) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ObservePINLockout is wired into the PIN guard's lockout hook by the
// composition root.
func ObservePINLockout(int64) {
	pinLockoutsTotal.Inc()
}
