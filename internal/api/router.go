package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/luofan/yupen/pkg/logger"
)

// NewRouter configures all routes.
func NewRouter(h *Handler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Healthz).Methods("GET")

	// Cron triggers, guarded by the shared secret.
	cron := r.PathPrefix("/cron").Subrouter()
	cron.HandleFunc("/daily", h.runCron("crawl_daily", h.jobs.CrawlDaily)).Methods("POST")
	cron.HandleFunc("/pool", h.runCron("generate_pool", h.jobs.GeneratePool)).Methods("POST")
	cron.HandleFunc("/ipo", h.runCron("push_ipo", h.jobs.PushIPO)).Methods("POST")
	cron.HandleFunc("/cleanup", h.runCron("cleanup", h.jobs.Cleanup)).Methods("POST")

	// Read-only artifact views.
	r.HandleFunc("/pool/latest", h.GetLatestPool).Methods("GET")
	r.HandleFunc("/crawl/status", h.GetCrawlStatus).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSON(w, http.StatusInternalServerError, map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
