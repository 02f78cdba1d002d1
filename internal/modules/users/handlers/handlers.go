// Package handlers provides HTTP handlers for authentication and user administration.
package handlers

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/users"
	"github.com/rs/zerolog"
)

// Handler handles auth and user HTTP requests
type Handler struct {
	service      *users.UserService
	tokens       *auth.TokenManager
	requireAdmin func(http.Handler) http.Handler
	log          zerolog.Logger
}

// NewHandler creates a new users handler. requireAdmin guards /users.
func NewHandler(service *users.UserService, tokens *auth.TokenManager, requireAdmin func(http.Handler) http.Handler, log zerolog.Logger) *Handler {
	return &Handler{
		service:      service,
		tokens:       tokens,
		requireAdmin: requireAdmin,
		log:          log.With().Str("handler", "users").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleRegister creates an account
// POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req users.UserCreate
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusCreated, u)
}

// HandleLogin exchanges credentials for a bearer token.
// Accepts a JSON body or an OAuth2 password form.
// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogin(r)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		api.WriteError(w, h.log, err)
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	h.log.Info().Int64("user_id", u.ID).Msg("User logged in")
	api.WriteJSON(w, h.log, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

// HandleMe returns the authenticated user
// GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return
	}

	u, err := h.service.Get(r.Context(), p.UserID)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, u)
}

// HandleListUsers returns a page of users
// GET /api/users?skip=0&limit=100
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := api.QueryInt(r, "skip", 0)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	limit, err := api.QueryInt(r, "limit", users.DefaultListLimit)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	list, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, list)
}

// HandleGetUser returns one user
// GET /api/users/{id}
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, u)
}

// HandleUpdateUser edits a user
// PATCH /api/users/{id}
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	var req users.UserUpdate
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	u, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, u)
}

// HandleDeleteUser removes a user and everything they own
// DELETE /api/users/{id}
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	p, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(r.Context(), id, p.UserID); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("%w: malformed form: %v", domain.ErrInvalidInput, err)
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if err := api.DecodeJSON(r, &req); err != nil {
		return req, err
	}

	if req.Username == "" || req.Password == "" {
		return req, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	return req, nil
}
