package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"autosales/internal/core"
	"autosales/internal/dashboard"
	applog "autosales/internal/log"
	"autosales/internal/sales/memory"
	"autosales/internal/view"
)

type failingCounter struct{}

func (failingCounter) Count(context.Context) (int, error) { return 0, errors.New("db gone") }

func newTestServer(t *testing.T, mutate func(*Deps)) *Server {
	t.Helper()
	table := memory.NewGenerated(42)
	deps := Deps{
		View:               view.NewService(table, view.DefaultOptions()),
		Sessions:           dashboard.NewSessionStore(100, time.Minute),
		Counter:            table,
		Logger:             applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard, Component: applog.ComponentHTTP}),
		RateLimitPerMinute: 1000,
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postEvent(srv *Server, cookie *http.Cookie, source, value string) *httptest.ResponseRecorder {
	form := url.Values{"source": {source}, "event": {"change"}, "value": {value}}
	req := httptest.NewRequest(http.MethodPost, "/ui/event", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return serve(srv, req)
}

func sessionCookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", sessionCookie)
	return nil
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != 200 {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Automobile Sales Recession and Yearly Report Dashboard",
		`id="vehicle-type-dropdown"`,
		`<option value="Supperminicar" selected>`,
		`<option value="2020" selected>`,
		`<option value="1980">`,
		"You have selected Supperminicar for the year 2020.",
		`id="recession-report-graph"`,
		`id="yearly-report-graph"`,
		"Yearly Sales for Supperminicar",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	sessionCookieFrom(t, rr)
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "cdn.plot.ly") {
		t.Errorf("CSP = %q", csp)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestUnknownPathAndMethod(t *testing.T) {
	srv := newTestServer(t, nil)

	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}
	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ui/event", nil)); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /ui/event status=%d", rr.Code)
	}
}

func TestEventFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := postEvent(srv, nil, dashboard.VehicleTypeInput, "Sports")
	if rr.Code != 200 {
		t.Fatalf("vehicle event status=%d body=%s", rr.Code, rr.Body.String())
	}
	cookie := sessionCookieFrom(t, rr)

	var resp struct {
		Updates []struct {
			Target string          `json:"target"`
			Kind   string          `json:"kind"`
			Text   string          `json:"text"`
			Figure json.RawMessage `json:"figure"`
		} `json:"updates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Updates) != 3 {
		t.Fatalf("updates=%d, want 3", len(resp.Updates))
	}
	if resp.Updates[0].Text != "You have selected Sports for the year 2020." {
		t.Errorf("status text = %q", resp.Updates[0].Text)
	}
	if resp.Updates[1].Target != dashboard.RecessionOutput || len(resp.Updates[1].Figure) == 0 {
		t.Errorf("recession update = %+v", resp.Updates[1])
	}

	rr = postEvent(srv, cookie, dashboard.YearInput, "1991")
	if rr.Code != 200 {
		t.Fatalf("year event status=%d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Updates) != 1 || resp.Updates[0].Text != "You have selected Sports for the year 1991." {
		t.Errorf("year updates = %+v", resp.Updates)
	}

	// the page reflects the session's selection
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if body := serve(srv, req).Body.String(); !strings.Contains(body, "You have selected Sports for the year 1991.") {
		t.Error("index did not render the session selection")
	}
}

func TestEventValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		source string
		value  string
		want   int
	}{
		{"unknown vehicle", dashboard.VehicleTypeInput, "Truck", http.StatusUnprocessableEntity},
		{"year out of range", dashboard.YearInput, "1979", http.StatusUnprocessableEntity},
		{"year not a number", dashboard.YearInput, "soon", http.StatusUnprocessableEntity},
		{"unknown source", "colour-dropdown", "red", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postEvent(srv, nil, tt.source, tt.value)
			if rr.Code != tt.want {
				t.Errorf("status=%d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestStatusPartial(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ui/status?vehicle=Sports&year=2020", nil))
	if rr.Code != 200 || rr.Body.String() != "You have selected Sports for the year 2020." {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/status?year=2021", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid year status=%d", rr.Code)
	}
}

func TestChartAPI(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/charts/yearly?vehicle=Sports&format=spec", nil))
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	var spec view.ChartSpec
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spec.Title != "Yearly Sales for Sports" && spec.Title != "No data available for Sports for yearly sales." {
		t.Errorf("title = %q", spec.Title)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/charts/recession?vehicle=Executivecar", nil))
	if rr.Code != 200 {
		t.Fatalf("figure status=%d", rr.Code)
	}
	var fig map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &fig); err != nil {
		t.Fatalf("decode figure: %v", err)
	}
	if _, ok := fig["layout"]; !ok {
		t.Errorf("figure has no layout: %s", rr.Body.String())
	}

	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/charts/pie", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("unknown kind status=%d", rr.Code)
	}
	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/charts/yearly?vehicle=Truck", nil)); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid vehicle status=%d", rr.Code)
	}
}

func TestOptions(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	var opts struct {
		VehicleTypes []string `json:"vehicle_types"`
		Years        []int    `json:"years"`
		Default      struct {
			VehicleType string `json:"vehicle_type"`
			Year        int    `json:"year"`
		} `json:"default"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(opts.VehicleTypes) != len(core.VehicleTypes()) || len(opts.Years) != 41 {
		t.Errorf("options = %+v", opts)
	}
	if opts.Default.VehicleType != "Supperminicar" || opts.Default.Year != 2020 {
		t.Errorf("default = %+v", opts.Default)
	}
}

func TestReadyzFailsWhenTableUnavailable(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) { d.Counter = failingCounter{} })
	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil)); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, nil)
	postEvent(srv, nil, dashboard.VehicleTypeInput, "Sports")

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`autosales_events_dispatched_total{source="vehicle-type-dropdown"} 1`,
		"autosales_sessions 1",
		"autosales_http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) { d.RateLimitPerMinute = 2 })

	var last int
	for i := 0; i < 3; i++ {
		last = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/status", nil)).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d, want 429", last)
	}
	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != 200 {
		t.Errorf("health checks are not rate limited, got %d", rr.Code)
	}
}

func TestTemplateParseErrorPath(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) { d.Templates = fstest.MapFS{} })

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing templates, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, nil)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), "/ui/event") {
		t.Fatalf("static status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
}
