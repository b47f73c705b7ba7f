package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Admin holds the basic auth credentials of the data views. The data
// views are not routed when either is empty.
type Admin struct {
	User     string
	Password string
}

func (a Admin) enabled() bool { return a.User != "" && a.Password != "" }

// NewRouter builds the full route tree with the global middleware stack.
func NewRouter(h *EventHandler, admin Admin) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Get("/", h.ListEvents)

	r.Route("/{event}", func(r chi.Router) {
		r.Get("/", h.GetEvent)
		r.Post("/", h.Register)
		if admin.enabled() {
			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.BasicAuth("ilmo", map[string]string{admin.User: admin.Password}))
				r.Get("/data", h.ListRegistrations)
				r.Get("/data.csv", h.ExportCSV)
			})
		}
	})
	return r
}

// Logger writes one access log line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Printf("%s %s %d %dB %s req=%s",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start).Round(time.Microsecond),
			chimiddleware.GetReqID(r.Context()))
	})
}

// CORS allows browser clients on other origins to read events and submit
// forms.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
