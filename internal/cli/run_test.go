package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/timerset/pkg/timerset"
)

const testWorkload = `name: cli-test
mode: nanoseconds
workers: 2
events:
  - name: parse
    iterations: 3
    spin: 50
  - name: flaky
    iterations: 4
    fail_every: 2
`

func writeWorkload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCmd_Text(t *testing.T) {
	path := writeWorkload(t, testWorkload)

	stdout, _, err := execute(t, "run", path, "--no-color")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "cli-test: 10 completed, 4 failed, 2 workers"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "flaky: "), lines[1])
	assert.Contains(t, lines[1], "4 samples")
	assert.True(t, strings.HasPrefix(lines[2], "parse: "), lines[2])
	assert.Contains(t, lines[2], "6 samples")
}

func TestRunCmd_JSON(t *testing.T) {
	path := writeWorkload(t, testWorkload)

	stdout, _, err := execute(t, "run", path, "--format", "json")
	require.NoError(t, err)

	doc := gjson.Parse(stdout)
	assert.Equal(t, "nanoseconds", doc.Get("mode").String())
	assert.Equal(t, uint64(1_000_000_000), doc.Get("cyclesPerSecond").Uint())
	assert.Equal(t, int64(2), doc.Get("events.#").Int())
	assert.Equal(t, uint64(6), doc.Get(`events.#(name=="parse").count`).Uint())
	assert.Equal(t, uint64(4), doc.Get(`events.#(name=="flaky").count`).Uint())
}

func TestRunCmd_YAML(t *testing.T) {
	path := writeWorkload(t, testWorkload)

	stdout, _, err := execute(t, "run", path, "--format", "yaml")
	require.NoError(t, err)

	var rep timerset.Report
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, timerset.ModeNanoseconds, rep.Mode)
	require.Len(t, rep.Events, 2)
	assert.Equal(t, "flaky", rep.Events[0].Name)
}

func TestRunCmd_Query(t *testing.T) {
	path := writeWorkload(t, testWorkload)

	stdout, _, err := execute(t, "run", path, "--query", `events.#(name=="parse").count`)
	require.NoError(t, err)
	assert.Equal(t, "6\n", stdout)

	_, _, err = execute(t, "run", path, "--query", "events.#(name==\"missing\")")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched nothing")
}

func TestRunCmd_Overrides(t *testing.T) {
	path := writeWorkload(t, testWorkload)

	stdout, _, err := execute(t, "run", path, "--workers", "5", "--query", `events.#(name=="parse").count`)
	require.NoError(t, err)
	assert.Equal(t, "15\n", stdout)

	_, _, err = execute(t, "run", path, "--mode", "sundial")
	require.Error(t, err)

	_, _, err = execute(t, "run", path, "--workers", "-1")
	require.Error(t, err)
}

func TestRunCmd_VerboseTracesToStderr(t *testing.T) {
	path := writeWorkload(t, `name: traced
mode: nanoseconds
events:
  - name: once
    iterations: 1
`)

	stdout, stderr, err := execute(t, "run", path, "--verbose", "--format", "json", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stderr, `start timing "once"`)
	assert.Contains(t, stderr, `stop timing "once"`)
	assert.NotContains(t, stdout, "start timing")
	assert.True(t, gjson.Valid(stdout))
}

func TestRunCmd_Errors(t *testing.T) {
	_, _, err := execute(t, "run")
	require.Error(t, err)

	_, _, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workload file not found")

	path := writeWorkload(t, "name: empty\nevents: []\n")
	_, _, err = execute(t, "run", path)
	require.Error(t, err)
}

func TestMetricsRouter(t *testing.T) {
	timers := timerset.MustNew(
		timerset.WithMode(timerset.ModeNanoseconds),
		timerset.WithSink(timerset.NopSink),
	)
	timers.Record("parse", 2_000_000_000)

	srv := httptest.NewServer(newMetricsRouter(timers, "demo"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `demo_event_seconds_total{event="parse"} 2`)
	assert.Contains(t, string(body), `demo_event_samples_total{event="parse"} 1`)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	post, err := http.Post(srv.URL+"/metrics", "text/plain", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}
