package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/garnizeh/portfolio/internal/accounts"
	"github.com/garnizeh/portfolio/internal/config"
	"github.com/garnizeh/portfolio/internal/metrics"
	"github.com/garnizeh/portfolio/pkg/repository"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Store    repository.Portfolio
	Jobs     repository.JobRepo
	Accounts *accounts.Service

	// Pinger backs the health check; nil reports healthy.
	Pinger Pinger

	Metrics     *metrics.Domain
	HTTPMetrics *metrics.HTTPMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// Site serves the HTML pages and the JSON API.
type Site struct {
	cfg      *config.Config
	store    repository.Portfolio
	jobs     repository.JobRepo
	accounts *accounts.Service
	sessions sessions.Store
	views    *views
	forms    *formDecoder
	limiter  *ipLimiter
	metrics  *metrics.Domain
}

func NewSite(cfg *config.Config, d Deps) (*Site, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	return &Site{
		cfg:      cfg,
		store:    d.Store,
		jobs:     d.Jobs,
		accounts: d.Accounts,
		sessions: newSessionStore(cfg.SessionSecret, int(cfg.SessionMaxAge.Seconds()), !cfg.IsDevelopment()),
		views:    v,
		forms:    newFormDecoder(),
		limiter:  newIPLimiter(cfg.Contact.Interval, cfg.Contact.Burst),
		metrics:  d.Metrics,
	}, nil
}

func SetupRoutes(cfg *config.Config, version, buildTime string, d Deps) (*mux.Router, error) {
	site, err := NewSite(cfg, d)
	if err != nil {
		return nil, fmt.Errorf("setup site: %w", err)
	}

	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}
	r.Use(TimeoutMiddleware(cfg.APITimeout))
	r.NotFoundHandler = RequestIDMiddleware(site.loadUser(http.HandlerFunc(site.notFound)))

	systemHandler := NewSystemHandler(d.Pinger)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler).Methods("GET")
	}

	// JSON API
	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(CORSMiddleware)
	apiV1.HandleFunc("/auth/token", site.IssueToken).Methods("POST", "OPTIONS")
	apiV1.HandleFunc("/portfolio", site.PortfolioJSON).Methods("GET", "OPTIONS")

	protected := apiV1.NewRoute().Subrouter()
	protected.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))
	protected.HandleFunc("/messages", site.MessagesJSON).Methods("GET", "OPTIONS")

	// HTML site
	html := r.NewRoute().Subrouter()
	if mw := site.csrfMiddleware(); mw != nil {
		html.Use(mw)
	}
	html.Use(site.loadUser)

	html.HandleFunc("/", site.Home).Methods("GET").Name("home")

	html.HandleFunc("/aboutme/new", site.requireSuperuser(site.NewAboutForm)).Methods("GET").Name("new_about")
	html.HandleFunc("/aboutme/new", site.requireSuperuser(site.CreateAbout)).Methods("POST")
	html.HandleFunc("/aboutme/{id:[0-9]+}/edit", site.requireSuperuser(site.EditAboutForm)).Methods("GET").Name("edit_about")
	html.HandleFunc("/aboutme/{id:[0-9]+}/edit", site.requireSuperuser(site.UpdateAbout)).Methods("POST")
	html.HandleFunc("/aboutme/{id:[0-9]+}/delete", site.requireSuperuser(site.ConfirmDeleteAbout)).Methods("GET").Name("delete_about")
	html.HandleFunc("/aboutme/{id:[0-9]+}/delete", site.requireSuperuser(site.DeleteAbout)).Methods("POST")

	html.HandleFunc("/skill/new", site.requireSuperuser(site.NewSkillForm)).Methods("GET").Name("new_skill")
	html.HandleFunc("/skill/new", site.requireSuperuser(site.CreateSkill)).Methods("POST")
	html.HandleFunc("/skill/{id:[0-9]+}/edit", site.requireSuperuser(site.EditSkillForm)).Methods("GET").Name("edit_skill")
	html.HandleFunc("/skill/{id:[0-9]+}/edit", site.requireSuperuser(site.UpdateSkill)).Methods("POST")
	html.HandleFunc("/skill/{id:[0-9]+}/delete", site.requireSuperuser(site.ConfirmDeleteSkill)).Methods("GET").Name("delete_skill")
	html.HandleFunc("/skill/{id:[0-9]+}/delete", site.requireSuperuser(site.DeleteSkill)).Methods("POST")

	html.HandleFunc("/reasons", site.requireSuperuser(site.Reasons)).Methods("GET").Name("reasons")
	html.HandleFunc("/reasons/new", site.requireSuperuser(site.NewReasonForm)).Methods("GET").Name("new_reason")
	html.HandleFunc("/reasons/new", site.requireSuperuser(site.CreateReason)).Methods("POST")
	html.HandleFunc("/reasons/{id:[0-9]+}/edit", site.requireSuperuser(site.EditReasonForm)).Methods("GET").Name("edit_reason")
	html.HandleFunc("/reasons/{id:[0-9]+}/edit", site.requireSuperuser(site.UpdateReason)).Methods("POST")
	html.HandleFunc("/reasons/{id:[0-9]+}/delete", site.requireSuperuser(site.ConfirmDeleteReason)).Methods("GET").Name("delete_reason")
	html.HandleFunc("/reasons/{id:[0-9]+}/delete", site.requireSuperuser(site.DeleteReason)).Methods("POST")

	html.HandleFunc("/message/send", site.SendMessageForm).Methods("GET").Name("send_message")
	html.HandleFunc("/message/send", site.SendMessage).Methods("POST")
	html.HandleFunc("/message/received", site.requireSuperuser(site.ReceivedMessages)).Methods("GET").Name("received_messages")

	html.HandleFunc("/pastworks", site.PastWorks).Methods("GET").Name("pastworks")
	html.HandleFunc("/pastwork/new", site.requireSuperuser(site.NewPastWorkForm)).Methods("GET").Name("new_pastwork")
	html.HandleFunc("/pastwork/new", site.requireSuperuser(site.CreatePastWork)).Methods("POST")
	html.HandleFunc("/pastwork/{id:[0-9]+}", site.PastWork).Methods("GET").Name("pastwork")
	html.HandleFunc("/pastwork/{id:[0-9]+}/edit", site.requireSuperuser(site.EditPastWorkForm)).Methods("GET").Name("update_pastwork")
	html.HandleFunc("/pastwork/{id:[0-9]+}/edit", site.requireSuperuser(site.UpdatePastWork)).Methods("POST")
	html.HandleFunc("/pastwork/{id:[0-9]+}/delete", site.requireSuperuser(site.ConfirmDeletePastWork)).Methods("GET").Name("delete_pastwork")
	html.HandleFunc("/pastwork/{id:[0-9]+}/delete", site.requireSuperuser(site.DeletePastWork)).Methods("POST")

	html.HandleFunc(loginPath, site.LoginForm).Methods("GET").Name("login")
	html.HandleFunc(loginPath, site.Login).Methods("POST")
	html.HandleFunc("/accounts/logout", site.Logout).Methods("POST").Name("logout")

	return r, nil
}

// csrfMiddleware protects every HTML form. It is disabled when no key is
// configured, which Validate only allows in development.
func (s *Site) csrfMiddleware() mux.MiddlewareFunc {
	if s.cfg.CSRFKey == "" {
		return nil
	}

	secure := !s.cfg.IsDevelopment()
	protect := csrf.Protect([]byte(s.cfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "csrf rejected", "reason", csrf.FailureReason(r))
			s.render(w, r, http.StatusForbidden, "error", "Forbidden", errorPage{Status: http.StatusForbidden, Message: "CSRF verification failed. Request aborted."})
		})),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
