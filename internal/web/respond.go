// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/pkg/errutil"
)

// Client-facing messages.
const (
	msgDuplicateAccount   = "Email already registered"
	msgInvalidCredentials = "Invalid credentials"
	msgNotAuthenticated   = "Not authenticated"
	msgInvalidToken       = "Invalid or expired token"
	msgUserNotFound       = "User not found"
	msgEmptyPassword      = "Password must not be empty"
	msgInternal           = "Internal server error"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps a flow error to a status and a message safe to show.
func statusFor(err error) (int, string) {
	switch auth.ErrorCode(err) {
	case auth.CodeDuplicateAccount:
		return http.StatusBadRequest, msgDuplicateAccount
	case auth.CodeInvalidCredentials:
		return http.StatusBadRequest, msgInvalidCredentials
	case auth.CodeUnauthenticated:
		return http.StatusUnauthorized, msgInvalidCredentials
	case auth.CodeInvalidOrExpiredToken:
		return http.StatusBadRequest, msgInvalidToken
	case auth.CodeNotFound:
		return http.StatusNotFound, msgUserNotFound
	case auth.CodeEmptyPassword:
		return http.StatusBadRequest, msgEmptyPassword
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		errutil.LogError(r.Context(), h.logger, "request failed", err,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
	} else {
		h.logger.DebugContext(r.Context(), "request rejected",
			"path", r.URL.Path,
			"code", auth.ErrorCode(err))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeDetail(w, status, msg)
}
