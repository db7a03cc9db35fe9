// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mtgvault/mtgvault/internal/auth"
)

// Response messages for successful calls.
const (
	msgWelcome       = "Welcome to the MTG API Backend!"
	msgUserCreated   = "User created successfully"
	msgResetSent     = "Password reset link sent to your email."
	msgResetComplete = "Password reset successful"
)

// AuthService is the account flow surface the handlers drive.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Me(user *auth.User) auth.Identity
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Resolver turns a bearer token into a user.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*auth.User, error)
}

type handler struct {
	service   AuthService
	resolver  Resolver
	logger    *slog.Logger
	validator *validator.Validate
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

// loginRequest accepts the OAuth2 password form field "username" as well
// as "email" in JSON bodies.
type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required,max=1024"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,max=1024"`
}

func (h *handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msgWelcome})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Register(r.Context(), req.Email, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgUserCreated})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isForm(r) {
		form, ok := h.decodeForm(w, r)
		if !ok {
			return
		}
		req.Username = form.Get("username")
		req.Password = form.Get("password")
		if !h.validate(w, &req) {
			return
		}
	} else if !h.decode(w, r, &req) {
		return
	}

	email := req.Username
	if email == "" {
		email = req.Email
	}
	result, err := h.service.Login(r.Context(), email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Me(user))
}

func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgResetSent})
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgResetComplete})
}

func (h *handler) notFound(w http.ResponseWriter, _ *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
