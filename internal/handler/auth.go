package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"moment/internal/auth"
	"moment/internal/domain/models"
	"moment/internal/httputil"
)

// AuthHandler proxies the credential flows to Supabase and exposes the
// caller's identity. Tokens are minted and validated by Supabase; this
// handler never issues its own.
type AuthHandler struct {
	client auth.CredentialClient
	logger *slog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(client auth.CredentialClient, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{client: client, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req credentialsRequest) validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 72)),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.client.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("signup failed", "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, pair)
}

// Login exchanges credentials for a session
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	pair, err := h.client.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, pair)
}

// Refresh rotates a session
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		httputil.RespondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.client.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, pair)
}

// Me returns the authenticated caller's profile from the verified token
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, models.UserProfile{
		ID:    httputil.GetUserID(r),
		Email: httputil.GetUserEmail(r),
	})
}
