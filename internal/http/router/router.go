package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/diagnosis/numerology-appointments/internal/http/handlers"
	mw "github.com/diagnosis/numerology-appointments/pkg/middleware"
)

type Deps struct {
	Notifier       handlers.Notifier
	AllowedOrigins []string
	JWTSecret      string
	Gatherer       prometheus.Gatherer
	RateLimiter    *mw.RateLimiter     // nil disables rate limiting
	Idempotency    mw.IdempotencyStore // nil disables replay protection
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("appointments"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.CORS(d.AllowedOrigins))
	r.Use(mw.Health)
	if d.Gatherer != nil {
		r.Use(mw.Metrics(d.Gatherer))
	}
	r.Use(mw.OptionalIdentity(d.JWTSecret))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	bh := handlers.NewBookingHandler(d.Notifier)

	r.Get("/", handlers.Root)
	r.Route("/api", func(r chi.Router) {
		r.With(
			d.RateLimiter.Middleware(),
			mw.Idempotency(d.Idempotency),
		).Post("/send-meeting-link", bh.SendMeetingLink)
	})

	return r
}
