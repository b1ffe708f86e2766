package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"autosales/internal/view"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderStatus(t *testing.T) {
	out, err := runCmd(t, "render", "--chart", "status", "--vehicle", "Sports", "--year", "2020")
	require.NoError(t, err)

	var doc statusDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "You have selected Sports for the year 2020.", doc.Status)
}

func TestRenderChartYAMLIsReproducible(t *testing.T) {
	args := []string{"render", "--chart", "yearly", "--vehicle", "Mediumfamilycar", "--format", "yaml", "--seed", "7"}
	first, err := runCmd(t, args...)
	require.NoError(t, err)
	second, err := runCmd(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var spec view.ChartSpec
	require.NoError(t, yaml.Unmarshal([]byte(first), &spec))
	assert.Equal(t, view.YearlyKind, spec.Kind)
	if !spec.Placeholder {
		assert.Equal(t, "Yearly Sales for Mediumfamilycar", spec.Title)
		assert.Equal(t, len(spec.Points), spec.Summary.Count)
	}
}

func TestRenderBackendsAgree(t *testing.T) {
	mem, err := runCmd(t, "render", "--chart", "recession", "--vehicle", "Sports", "--seed", "11", "--backend", "memory")
	require.NoError(t, err)
	sql, err := runCmd(t, "render", "--chart", "recession", "--vehicle", "Sports", "--seed", "11", "--backend", "sqlite")
	require.NoError(t, err)
	assert.JSONEq(t, mem, sql)
}

func TestRenderHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")
	out, err := runCmd(t, "render", "--chart", "yearly", "--vehicle", "Sports", "--format", "html", "--out", path, "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "plotly"), "html export should load plotly")
}

func TestRenderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"vehicle", []string{"render", "--vehicle", "Truck"}},
		{"year", []string{"render", "--chart", "status", "--year", "1975"}},
		{"chart", []string{"render", "--chart", "pie"}},
		{"format", []string{"render", "--format", "xml"}},
		{"html without out", []string{"render", "--format", "html"}},
		{"html status", []string{"render", "--chart", "status", "--format", "html", "--out", "x.html"}},
		{"backend", []string{"render", "--backend", "postgres"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestWatchRequiresBroker(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	_, err := runCmd(t, "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}
