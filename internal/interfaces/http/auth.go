package http

import (
	"log"
	"net/http"
	"strings"

	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
	"fintrack/internal/shared/auth"
	"fintrack/internal/shared/middleware"
)

type AuthHandler struct {
	svc      *tracker.Service
	provider auth.Provider
}

func NewAuthHandler(svc *tracker.Service, provider auth.Provider) *AuthHandler {
	return &AuthHandler{svc: svc, provider: provider}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Token string       `json:"token,omitempty"`
	User  UserResponse `json:"user"`
}

func toUserResponse(rec *user.Record) UserResponse {
	return UserResponse{ID: rec.ID, Name: rec.Name, Email: rec.Email}
}

// HandleSignup creates the login identity and the user's record. Providers
// that issue their own tokens also sign the new user in.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, "signup", err)
		return
	}

	resp := AuthResponse{User: toUserResponse(rec)}
	if signer, ok := h.provider.(auth.PasswordSignIn); ok {
		token, _, err := signer.SignIn(r.Context(), rec.Email, req.Password)
		if err != nil {
			log.Printf("Error signing in new user %s: %v", rec.ID, err)
		} else {
			setAuthCookie(w, r, token)
			resp.Token = token
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin exchanges an email and password for an access token. With an
// external identity provider clients sign in there and send its ID token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	signer, ok := h.provider.(auth.PasswordSignIn)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Sign in with the identity provider and send its ID token")
		return
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, userID, err := signer.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	rec, err := h.svc.EnsureRecord(r.Context(), userID, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	setAuthCookie(w, r, token)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: toUserResponse(rec)})
}

// HandleLogout clears the auth cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user, creating their record on first use.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.EnsureRecord(r.Context(), userID, "")
	if err != nil {
		writeServiceError(w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(rec))
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// setAuthCookie sets the token as an HttpOnly cookie that lives as long as
// the token.
func setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenTTL.Seconds()),
	})
}
