package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/metrics"
)

// Controllers groups every handler mounted by NewRouter.
type Controllers struct {
	Auth      *AuthController
	Sns       *SnsController
	Genres    *GenreController
	Posts     *PostController
	Schedules *ScheduleController
	Affiliate *AffiliateController
	Autopilot *AutopilotController
	Dashboard *DashboardController
	Links     *LinkController

	Authenticator Authenticator
	CORSOrigins   []string
	Logger        logging.Logger
}

func NewRouter(c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(c.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(CORS(c.CORSOrigins))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/auth/register", c.Auth.Register)
	r.Post("/api/auth/login", c.Auth.Login)
	r.Get("/api/links/r/{code}", c.Links.Redirect)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(c.Authenticator, c.Logger))

		r.Route("/api/sns", func(r chi.Router) {
			r.Get("/accounts", c.Sns.ListAccounts)
			r.Post("/connect/{platform}", c.Sns.Connect)
			r.Delete("/accounts/{id}", c.Sns.DeleteAccount)
		})

		r.Route("/api/genres", func(r chi.Router) {
			r.Get("/", c.Genres.List)
			r.Post("/", c.Genres.Create)
			r.Delete("/{id}", c.Genres.Delete)
		})

		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", c.Posts.List)
			r.Post("/generate", c.Posts.Generate)
			r.Get("/trends", c.Posts.Trends)
			r.Get("/{id}", c.Posts.Get)
			r.Delete("/{id}", c.Posts.Delete)
		})

		r.Route("/api/schedules", func(r chi.Router) {
			r.Get("/", c.Schedules.List)
			r.Post("/", c.Schedules.Create)
			r.Delete("/{id}", c.Schedules.Delete)
		})

		r.Route("/api/affiliate", func(r chi.Router) {
			r.Get("/accounts", c.Affiliate.ListAccounts)
			r.Post("/accounts", c.Affiliate.CreateAccount)
			r.Get("/offers", c.Affiliate.ListOffers)
			r.Post("/offers", c.Affiliate.CreateOffer)
			r.Delete("/offers/{id}", c.Affiliate.DeleteOffer)
			r.Get("/stats", c.Affiliate.Stats)
		})

		r.Route("/api/autopilot", func(r chi.Router) {
			r.Get("/status", c.Autopilot.Status)
			r.Post("/toggle", c.Autopilot.Toggle)
			r.Post("/run-now", c.Autopilot.RunNow)
		})

		r.Get("/api/dashboard/stats", c.Dashboard.Stats)
		r.Post("/api/links/", c.Links.Create)
		r.Post("/api/links", c.Links.Create)
	})

	return r
}
