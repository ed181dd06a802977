package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/realtimemaps-be/internal/api/handlers"
	"github.com/isdelr/realtimemaps-be/internal/metrics"
	"github.com/isdelr/realtimemaps-be/internal/services"
	"github.com/isdelr/realtimemaps-be/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Deps groups everything the router wires into handlers.
type Deps struct {
	Logger            zerolog.Logger
	Hub               *websocket.Hub
	Metrics           *metrics.Metrics
	UserService       services.UserServiceProvider
	SearchService     services.SearchServiceProvider
	ReportService     services.ReportServiceProvider
	Transit           handlers.TransitProvider
	AllowedOrigins    []string
	FrontendBuildPath string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.UserService)
	searchHandler := handlers.NewSearchHandler(d.SearchService)
	var publisher handlers.Publisher
	if d.Hub != nil {
		publisher = d.Hub
	}
	reportHandler := handlers.NewReportHandler(d.ReportService, publisher)
	transitHandler := handlers.NewTransitHandler(d.Transit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/signup", userHandler.Signup)
		r.Post("/login", userHandler.Login)
		r.Post("/search", searchHandler.Save)
		r.Post("/report", reportHandler.Save)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", userHandler.Get)
			r.Get("/searches", searchHandler.ListByUser)
			r.Get("/reports", reportHandler.ListByUser)
		})

		r.Get("/train/status", transitHandler.TrainStatus)
		r.Get("/flight/summary", transitHandler.FlightSummary)
		r.Get("/traffic/status", transitHandler.TrafficStatus)
	})

	if d.Hub != nil {
		wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)
		r.Get("/ws/updates", wsHandler.Serve)
	}

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	mountFrontend(r, d.FrontendBuildPath)

	return r
}

// requestLogger logs one line per request with the chi request id attached.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})
	withRequestID := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", reqID)
			})
			next.ServeHTTP(w, r)
		})
	}
	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(logger)(withRequestID(access(next)))
	}
}
