// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func isForm(r *http.Request) bool {
	switch mediaType(r) {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return true
	}
	return false
}

// decodeForm parses an urlencoded or multipart body under the same size cap
// as JSON bodies. On failure it writes a 422 response and returns false.
func (h *handler) decodeForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var err error
	if mediaType(r) == "multipart/form-data" {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []fieldError{{Field: "body", Message: "malformed form body"}})
		return nil, false
	}
	return r.PostForm, true
}

// decode reads a JSON body into dst and validates it. On failure it writes
// a 422 response and returns false.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		msg := "request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeDetail(w, http.StatusUnprocessableEntity, []fieldError{{Field: "body", Message: msg}})
		return false
	}
	return h.validate(w, dst)
}

func (h *handler) validate(w http.ResponseWriter, dst any) bool {
	err := h.validator.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeDetail(w, http.StatusUnprocessableEntity, []fieldError{{Field: "body", Message: err.Error()}})
		return false
	}
	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldError{Field: fe.Field(), Message: describe(fe)})
	}
	writeDetail(w, http.StatusUnprocessableEntity, details)
	return false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}
