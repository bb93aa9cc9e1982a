package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

const sessionCookieName = "frete_session"

type authService struct {
	store         *store.Store
	sessionSecret []byte
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func newAuthService(st *store.Store, sessionSecret string) *authService {
	return &authService{store: st, sessionSecret: []byte(sessionSecret)}
}

func (a *authService) validateCredentials(ctx context.Context, email, password string) (bool, error) {
	passwordHash, err := a.store.PasswordHash(ctx, email)
	if errors.Is(err, tariff.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare password hash: %w", err)
	}
	return true, nil
}

func (a *authService) ensureAdminUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := a.store.PasswordHash(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, tariff.ErrNotFound) {
		return fmt.Errorf("check admin user existence: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := a.store.EnsureUser(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

func (a *authService) createSessionValue(email string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(email))
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (a *authService) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok || strings.Contains(signature, ".") {
		return "", false
	}

	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}

	return string(decoded), true
}

func (a *authService) setSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(email),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	ok, err := s.auth.validateCredentials(r.Context(), email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid_credentials", Message: "invalid email or password"})
		return
	}

	s.auth.setSessionCookie(w, email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r, s.auth) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAuthenticated(r *http.Request, auth *authService) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}

	_, ok := auth.verifySessionValue(cookie.Value)
	return ok
}
