package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autosales/internal/core"
	"autosales/internal/dashboard"
)

const sessionCookie = "autosales_session"

// session returns the caller's session id, issuing a new cookie when the
// request carries none or a malformed one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && dashboard.ValidSessionID(c.Value) {
		return c.Value
	}
	id := dashboard.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return id
}

// parseSelection reads vehicle and year query parameters over base.
func parseSelection(r *http.Request, base core.Selection) (core.Selection, error) {
	sel := base
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("vehicle")); v != "" {
		vt, err := core.ParseVehicleType(v)
		if err != nil {
			return base, err
		}
		sel.VehicleType = vt
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return base, core.ErrInvalidYear
		}
		if err := core.ValidateYear(year); err != nil {
			return base, err
		}
		sel.Year = year
	}
	return sel, nil
}

// sanitizeInput strips control characters and surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidVehicleType), errors.Is(err, core.ErrInvalidYear):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrUnknownTrigger), errors.Is(err, dashboard.ErrUnknownInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
