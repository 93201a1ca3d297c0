package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/portfolio/internal/accounts"
	"github.com/garnizeh/portfolio/pkg/models"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type portfolioResponse struct {
	Owner        string              `json:"owner"`
	Abouts       []models.About      `json:"abouts"`
	Competencies []models.Competency `json:"competencies"`
	PastWorks    []models.PastWork   `json:"pastworks"`
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// IssueToken exchanges superuser credentials for a signed API token.
func (s *Site) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "missing fields")
		return
	}

	u, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) || (err == nil && !u.IsSuperuser) {
		s.metrics.Login("failure")
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "authenticate", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.metrics.Login("success")

	expires := time.Now().Add(s.cfg.TokenDuration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Superuser: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	tokenStr, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "error generating token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: tokenStr, ExpiresAt: expires.UTC()})
}

func (s *Site) PortfolioJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := portfolioResponse{Owner: s.cfg.SiteOwner}

	var err error
	if resp.Abouts, err = s.store.ListAbouts(ctx); err == nil {
		if resp.Competencies, err = s.store.ListCompetencies(ctx); err == nil {
			resp.PastWorks, err = s.store.ListPastWorks(ctx, 0)
		}
	}
	if err != nil {
		logger.ErrorContext(ctx, "load portfolio", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// MessagesJSON lists received messages. The token holder must still be an
// active superuser.
func (s *Site) MessagesJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := ctx.Value(CtxUserID).(int64)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := s.accounts.User(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "load token user", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !isSuperuser(u) {
		writeJSONError(w, http.StatusForbidden, "forbidden")
		return
	}

	limit := queryInt(r, "limit", messagesPerPage)
	if limit <= 0 || limit > 200 {
		limit = messagesPerPage
	}
	offset := queryInt(r, "offset", 0)

	msgs, err := s.store.ListMessages(ctx, limit, offset)
	if err != nil {
		logger.ErrorContext(ctx, "list messages", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := s.store.CountMessages(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "count messages", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs, Total: total, Limit: limit, Offset: offset})
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
