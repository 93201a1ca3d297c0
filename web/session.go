package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/garnizeh/portfolio/internal/accounts"
	"github.com/garnizeh/portfolio/pkg/models"
)

const (
	sessionName   = "portfolio_session"
	sessionUserID = "user_id"
	loginPath     = "/accounts/login"
)

func newSessionStore(secret string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Site) session(r *http.Request) *sessions.Session {
	// a tampered or stale cookie yields a fresh session and an error we can ignore
	sess, _ := s.sessions.Get(r, sessionName)
	return sess
}

// loadUser resolves the logged in user from the session cookie and stores it
// in the request context.
func (s *Site) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.session(r)
		id, ok := sess.Values[sessionUserID].(int64)
		if !ok || id <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		u, err := s.accounts.User(r.Context(), id)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if u == nil || !u.IsActive {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, u)))
	})
}

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxUser).(*models.User)
	return u
}

func isSuperuser(u *models.User) bool {
	return u != nil && u.IsActive && u.IsSuperuser
}

// requireSuperuser sends anonymous visitors to the login page and answers 404
// to signed in accounts without superuser rights.
func (s *Site) requireSuperuser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			http.Redirect(w, r, loginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if !isSuperuser(u) {
			s.notFound(w, r)
			return
		}
		h(w, r)
	}
}

func (s *Site) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess := s.session(r)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		logger.ErrorContext(r.Context(), "save flash", slog.Any("err", err))
	}
}

func (s *Site) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	sess := s.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		logger.ErrorContext(r.Context(), "clear flashes", slog.Any("err", err))
	}

	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// safeNext accepts only local absolute paths as a post-login destination.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

type loginPage struct {
	Form   loginForm
	Errors formErrors
	Error  string
}

func (s *Site) LoginForm(w http.ResponseWriter, r *http.Request) {
	if isSuperuser(currentUser(r)) {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login", "Log in", loginPage{Form: loginForm{Next: r.URL.Query().Get("next")}})
}

func (s *Site) Login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "login", "Log in", loginPage{Form: form, Errors: errs})
		return
	}

	u, err := s.accounts.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		s.metrics.Login("failure")
		form.Password = ""
		s.render(w, r, http.StatusOK, "login", "Log in", loginPage{
			Form:  form,
			Error: "Please enter a correct username and password. Note that both fields may be case-sensitive.",
		})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	sess := s.session(r)
	sess.Values[sessionUserID] = u.ID
	if err := sess.Save(r, w); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.metrics.Login("success")
	logger.InfoContext(r.Context(), "user logged in", slog.Int64("user_id", u.ID))

	http.Redirect(w, r, safeNext(form.Next), http.StatusFound)
}

func (s *Site) Logout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	delete(sess.Values, sessionUserID)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		logger.ErrorContext(r.Context(), "clear session", slog.Any("err", err))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
