package dashboard

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-pair-monitor/internal/blacklist"
	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/monitor"
	"dex-pair-monitor/internal/render"
	"dex-pair-monitor/internal/storage/memory"
)

const wsolMint = "So11111111111111111111111111111111111111112"

// fakeController mimics monitor.Monitor's command checks without a loop.
type fakeController struct {
	mu      sync.Mutex
	cfg     domain.Config
	session domain.Session
	busy    bool
}

func (f *fakeController) Start(cfg *domain.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Running() {
		return monitor.ErrAlreadyRunning
	}
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return err
		}
		f.cfg = *cfg
	}
	if f.busy {
		return monitor.ErrBusy
	}
	f.session = f.session.Started()
	return nil
}

func (f *fakeController) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.session.Running() {
		return monitor.ErrNotRunning
	}
	f.session = f.session.Stopped()
	return nil
}

func (f *fakeController) UpdateConfig(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	return nil
}

func (f *fakeController) Config() domain.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

func (f *fakeController) Status() monitor.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return monitor.Status{Session: f.session, Config: f.cfg}
}

type testEnv struct {
	server     *httptest.Server
	controller *fakeController
	alerts     *monitor.AlertLog
	recorder   *render.Recorder
	guard      *blacklist.Guard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	env := &testEnv{
		controller: &fakeController{
			cfg: domain.Config{
				Endpoint:       "https://api.dexscreener.com/latest/dex/search?q=new",
				Thresholds:     domain.Thresholds{MinLiquidityUSD: 5000, MaxAgeMinutes: 60},
				RefreshSeconds: 30,
			},
			session: domain.NewSession(),
		},
		alerts:   monitor.NewAlertLog(10),
		recorder: render.NewRecorder(),
		guard:    blacklist.NewGuard(memory.NewBlacklistStore(), logger),
	}

	srv := NewServer(Options{
		Controller: env.controller,
		Alerts:     env.alerts,
		Blacklist:  env.guard,
		Frames:     env.recorder,
		Hub:        NewHub(env.recorder.Frame, logger),
		Logger:     logger,
	})
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	resp = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_StartStop(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/stop", "").StatusCode)
	assert.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/start", "").StatusCode)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/start", "").StatusCode)
	assert.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/stop", "").StatusCode)
}

func TestServer_StartWithOverrides(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/start", `{"minLiquidityUsd": 2000, "maxAgeMinutes": 5}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	cfg := env.controller.Config()
	assert.Equal(t, 2000.0, cfg.Thresholds.MinLiquidityUSD)
	assert.Equal(t, 5.0, cfg.Thresholds.MaxAgeMinutes)
	assert.Equal(t, 30, cfg.RefreshSeconds)
}

func TestServer_StartWhileRunningKeepsConfig(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/start", "").StatusCode)
	before := env.controller.Config()

	resp := env.do(t, http.MethodPost, "/start", `{"minLiquidityUsd": 999999}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, before, env.controller.Config())

	resp = env.do(t, http.MethodGet, "/config", "")
	cfg := decode[domain.Config](t, resp)
	assert.Equal(t, 5000.0, cfg.Thresholds.MinLiquidityUSD)
}

func TestServer_StartInvalid(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/start", `{"refreshSeconds": 0}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/start", `{not json`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/start", `{"bogus": 1}`).StatusCode)
}

func TestServer_StartBusy(t *testing.T) {
	env := newTestEnv(t)
	env.controller.busy = true

	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodPost, "/start", "").StatusCode)
}

func TestServer_Config(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decode[domain.Config](t, resp)
	assert.Equal(t, 30, cfg.RefreshSeconds)

	resp = env.do(t, http.MethodPut, "/config", `{"refreshSeconds": 10, "endpoint": "http://localhost:9000/pairs"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg = decode[domain.Config](t, resp)
	assert.Equal(t, 10, cfg.RefreshSeconds)
	assert.Equal(t, "http://localhost:9000/pairs", cfg.Endpoint)
	assert.Equal(t, 5000.0, cfg.Thresholds.MinLiquidityUSD)

	resp = env.do(t, http.MethodPut, "/config", `{"endpoint": "ftp://nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "http://localhost:9000/pairs", env.controller.Config().Endpoint)
}

func TestServer_Status(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/start", "")

	resp := env.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RUNNING", session["state"])
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "blacklistTokens")
}

func TestServer_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	env.recorder.StatusLines([]string{"state: RUNNING"})
	env.recorder.Notice(domain.Notice{Level: domain.NoticeInfo, Message: monitor.NoMatchesMessage})

	resp := env.do(t, http.MethodGet, "/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	frame := decode[render.Frame](t, resp)
	assert.Equal(t, uint64(1), frame.Seq)
	require.Len(t, frame.Notices, 1)

	resp = env.do(t, http.MethodGet, "/snapshot.md", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), monitor.NoMatchesMessage)
}

func TestServer_Alerts(t *testing.T) {
	env := newTestEnv(t)
	env.alerts.Add(
		domain.Alert{ID: "a", Reason: monitor.ReasonHoneypot, Level: domain.AlertCritical},
		domain.Alert{ID: "b", Reason: monitor.ReasonUnverified, Level: domain.AlertLow},
	)

	resp := env.do(t, http.MethodGet, "/alerts?limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	alerts := decode[[]domain.Alert](t, resp)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a", alerts[0].ID)

	resp = env.do(t, http.MethodGet, "/alerts", "")
	assert.Len(t, decode[[]domain.Alert](t, resp), 2)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/alerts?limit=0", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/alerts?limit=x", "").StatusCode)
}

func TestServer_Blacklist(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/blacklist", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.BlacklistEntry](t, resp))

	resp = env.do(t, http.MethodPost, "/blacklist", `{"address":"`+wsolMint+`","kind":"token","reason":"known scam"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[domain.BlacklistEntry](t, resp)
	assert.Equal(t, wsolMint, entry.Address)
	assert.True(t, env.guard.ContainsToken(wsolMint))

	assert.Equal(t, http.StatusConflict,
		env.do(t, http.MethodPost, "/blacklist", `{"address":"`+wsolMint+`","kind":"token"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPost, "/blacklist", `{"address":"0x12","kind":"token"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPost, "/blacklist", `{"address":"`+wsolMint+`","kind":"wallet"}`).StatusCode)

	resp = env.do(t, http.MethodGet, "/blacklist", "")
	assert.Len(t, decode[[]domain.BlacklistEntry](t, resp), 1)

	resp = env.do(t, http.MethodPost, "/blacklist/sync", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"tokens": 1}, decode[map[string]int](t, resp))

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/blacklist/"+wsolMint, "").StatusCode)
	assert.False(t, env.guard.ContainsToken(wsolMint))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/blacklist/"+wsolMint, "").StatusCode)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, "/start", "").StatusCode)
}
