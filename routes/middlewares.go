package routes

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mileusna/useragent"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func init() {
	prometheus.MustRegister(RequestCounter)
}

var RequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "coinmod_http_requests_total",
	Help: "Admin and operator HTTP requests by route and status",
}, []string{"route", "code"})

// AdminMiddleware lets through requests carrying the configured admin token.
// An empty token disables the admin API.
func AdminMiddleware(token string) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("Authorization")
			if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			handler.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs every request with the client family parsed from its
// user agent and counts it by route pattern.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			RequestCounter.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()

			ua := useragent.Parse(r.UserAgent())
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("client", ua.Name),
				zap.String("os", ua.OS),
				zap.Bool("bot", ua.Bot),
			)
		})
	}
}
