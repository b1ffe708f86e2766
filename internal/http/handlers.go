package http

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"autosales/internal/core"
	"autosales/internal/dashboard"
	applog "autosales/internal/log"
	"autosales/internal/view"
)

const pageTitle = "Automobile Sales Recession and Yearly Report Dashboard"

type pageData struct {
	Title        string
	VehicleTypes []core.VehicleType
	Years        []int
	Selection    core.Selection
	Status       string
	Recession    template.JS
	Yearly       template.JS

	VehicleInput    string
	YearInput       string
	StatusOutput    string
	RecessionOutput string
	YearlyOutput    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	t, err := s.pageTemplates()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sel := s.sessions.Get(s.session(w, r))
	data := pageData{
		Title:           pageTitle,
		VehicleTypes:    core.VehicleTypes(),
		Years:           core.SelectableYears(),
		Selection:       sel,
		VehicleInput:    dashboard.VehicleTypeInput,
		YearInput:       dashboard.YearInput,
		StatusOutput:    dashboard.StatusOutput,
		RecessionOutput: dashboard.RecessionOutput,
		YearlyOutput:    dashboard.YearlyOutput,
	}

	for _, u := range s.dispatcher.Render(ctx, sel) {
		switch u.Target {
		case dashboard.StatusOutput:
			data.Status = u.Text
		case dashboard.RecessionOutput:
			data.Recession, err = figureJS(u)
		case dashboard.YearlyOutput:
			data.Yearly, err = figureJS(u)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Figure encoding failed", applog.FieldError, err, applog.FieldChart, u.Target)
			http.Error(w, "figure encoding failed", http.StatusInternalServerError)
			return
		}
	}

	// Render into a buffer so a template failure still yields a clean 500.
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.ErrorContext(ctx, "Index template execution failed", applog.FieldError, err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func figureJS(u dashboard.Update) (template.JS, error) {
	b, err := json.Marshal(u.Figure)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

type eventResponse struct {
	Updates []dashboard.Update `json:"updates"`
}

// handleEvent applies one selector change and returns the output updates.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.WarnContext(r.Context(), "Parse form error", applog.FieldError, err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed form"})
		return
	}

	ev := dashboard.Event{
		Source: sanitizeInput(r.PostForm.Get("source")),
		Kind:   dashboard.EventKind(sanitizeInput(r.PostForm.Get("event"))),
		Value:  sanitizeInput(r.PostForm.Get("value")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sessionID := s.session(w, r)
	updates, err := s.dispatcher.Dispatch(ctx, sessionID, ev)
	if err != nil {
		s.logger.WarnContext(ctx, "Event rejected", applog.FieldError, err, "source", ev.Source)
		writeError(w, err)
		return
	}

	sel := s.sessions.Get(sessionID)
	s.eventsDispatched.WithLabelValues(ev.Source).Inc()
	s.events.LogEventDispatched(ctx, ev.Source+"."+string(ev.Kind), sel.VehicleType.String(), sel.Year, len(updates))
	writeJSON(w, http.StatusOK, eventResponse{Updates: updates})
}

// handleStatus renders the status text for the query selection, falling back
// to the session's selection for missing parameters.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	base := s.sessions.Get(s.session(w, r))
	sel, err := parseSelection(r, base)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.view.Status(sel.VehicleType, sel.Year)))
}

// handleChart returns the plotly figure for one chart, or the chart
// ChartSpec itself with format=spec.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := view.ParseChartKind(r.PathValue("kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	sel, err := parseSelection(r, core.DefaultSelection())
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	spec := s.view.Chart(ctx, kind, sel.VehicleType)
	if r.URL.Query().Get("format") == "spec" {
		writeJSON(w, http.StatusOK, spec)
		return
	}
	writeJSON(w, http.StatusOK, view.Figure(spec))
}

type optionsResponse struct {
	VehicleTypes []core.VehicleType `json:"vehicle_types"`
	Years        []int              `json:"years"`
	Default      selectionJSON      `json:"default"`
}

type selectionJSON struct {
	VehicleType core.VehicleType `json:"vehicle_type"`
	Year        int              `json:"year"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	def := core.DefaultSelection()
	writeJSON(w, http.StatusOK, optionsResponse{
		VehicleTypes: core.VehicleTypes(),
		Years:        core.SelectableYears(),
		Default:      selectionJSON{VehicleType: def.VehicleType, Year: def.Year},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the sales table answers and is non-empty.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := s.counter.Count(ctx)
	if err != nil || n == 0 {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err, "records", n)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
