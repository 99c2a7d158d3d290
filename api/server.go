/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, attached to the request logger
  2. RealIP:     Client address behind a proxy
  3. Logger:     zerolog access log (method, path, status, duration)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/employees/*      Employees, timesheets, leave, deductions, missions
  /api/loans/*          Loan installment deferrals
  /api/tax/*            Income tax brackets
  /api/parameters       Pay parameters
  /api/payroll/*        Payroll runs, journal and payslips

SECURITY NOTE:
  No authentication middleware. Deploy behind the company gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/payroll-engine/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEmployee)
				r.Post("/deactivate", h.DeactivateEmployee)

				r.Route("/timesheets/{year}/{month}", func(r chi.Router) {
					r.Get("/", h.GetTimesheet)
					r.Put("/days/{day}", h.MarkDay)
					r.Post("/lock", h.LockTimesheet)
				})

				r.Get("/leave", h.GetLeave)
				r.Post("/leave/taken", h.SetLeaveTaken)

				r.Get("/advances", h.ListAdvances)
				r.Post("/advances", h.GrantAdvance)
				r.Get("/loans", h.ListLoans)
				r.Post("/loans", h.GrantLoan)
				r.Get("/missions", h.ListMissions)
				r.Post("/missions", h.CreateMission)
			})
		})

		r.Post("/loans/{id}/deferrals", h.DeferInstallment)

		r.Route("/tax/brackets", func(r chi.Router) {
			r.Get("/", h.GetBrackets)
			r.Put("/", h.ReplaceBrackets)
			r.Post("/upload", h.UploadBrackets)
		})

		r.Get("/parameters", h.GetParameters)
		r.Put("/parameters", h.SaveParameters)

		r.Route("/payroll/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.PreviewAll)
			r.Post("/validate", h.ValidateAll)
			r.Get("/journal.xlsx", h.Journal)

			r.Route("/employees/{id}", func(r chi.Router) {
				r.Get("/", h.PreviewEmployee)
				r.Post("/validate", h.ValidateEmployee)
				r.Post("/paid", h.MarkPaid)
				r.Get("/payslip.pdf", h.Payslip)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// requestLogger attaches a request-scoped zerolog logger to the context and
// writes one access line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithFields(r.Context(), map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		event := logging.FromContext(ctx).Info()
		if status >= http.StatusInternalServerError {
			event = logging.FromContext(ctx).Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
