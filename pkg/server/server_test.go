package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/latextocalc/latextocalc/pkg/clipboard"
	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/dispatch"
	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/pipeline"
	"github.com/latextocalc/latextocalc/pkg/probe"
	"github.com/latextocalc/latextocalc/pkg/router"
	"github.com/latextocalc/latextocalc/pkg/settings"
)

type testEnv struct {
	srv   *Server
	clip  *clipboard.Memory
	calls *atomic.Int64
}

func setupServer(t *testing.T, upstream http.HandlerFunc) *testEnv {
	t.Helper()

	var calls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(ts.Close)

	cfg := &config.EndpointsConfig{
		Hosts:   []string{strings.TrimPrefix(ts.URL, "http://")},
		Schemes: []string{"http"},
		Path:    "/translate",
		Timeout: time.Second,
	}
	d, err := dispatch.New(router.New(cfg), dispatch.Options{Path: cfg.Path, Timeout: cfg.Timeout})
	if err != nil {
		t.Fatal(err)
	}

	store, err := settings.New(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clip := &clipboard.Memory{}
	svc, err := pipeline.New(pipeline.Options{
		Translator: d,
		Prober:     probe.New(ts.URL, nil, nil),
		Settings:   store,
		Clipboard:  clip,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Close)

	return &testEnv{srv: New(":0", svc, clip, nil), clip: clip, calls: &calls}
}

func echoUpstream(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": body["expression"]})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) models.Outcome {
	t.Helper()
	var out models.Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode outcome: %v: %s", err, w.Body.String())
	}
	return out
}

func TestTranslateExpression(t *testing.T) {
	env := setupServer(t, echoUpstream)

	w := do(t, env.srv, http.MethodPost, "/v1/translate", `{"expression":"x^2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Latextocalc-Cache") != "miss" {
		t.Error("expected cache miss on first request")
	}
	out := decodeOutcome(t, w)
	if out.Status != models.StatusTranslated || out.Result != "x^2" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if text, _ := env.clip.ReadText(t.Context()); text != "x^2" {
		t.Errorf("expected clipboard x^2, got %q", text)
	}

	w = do(t, env.srv, http.MethodPost, "/v1/translate", `{"expression":"x^2"}`)
	if w.Header().Get("X-Latextocalc-Cache") != "hit" {
		t.Error("expected cache hit on second request")
	}
	if env.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", env.calls.Load())
	}
}

func TestTranslateFromClipboard(t *testing.T) {
	env := setupServer(t, echoUpstream)
	_ = env.clip.WriteText(t.Context(), `\pi r^2`)

	w := do(t, env.srv, http.MethodPost, "/v1/translate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if out := decodeOutcome(t, w); out.Input != `\pi r^2` {
		t.Errorf("expected clipboard input, got %q", out.Input)
	}
}

func TestTranslateNoInput(t *testing.T) {
	env := setupServer(t, echoUpstream)

	w := do(t, env.srv, http.MethodPost, "/v1/translate", `{}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if out := decodeOutcome(t, w); out.Message != pipeline.MsgNoInput {
		t.Errorf("unexpected message %q", out.Message)
	}
}

func TestTranslateServerDown(t *testing.T) {
	env := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/translate" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	w := do(t, env.srv, http.MethodPost, "/v1/translate", `{"expression":"y"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	out := decodeOutcome(t, w)
	if out.Status != models.StatusServerDown {
		t.Errorf("expected server_down, got %s", out.Status)
	}
}

func TestTranslateInvalidBody(t *testing.T) {
	env := setupServer(t, echoUpstream)
	w := do(t, env.srv, http.MethodPost, "/v1/translate", `{`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := setupServer(t, echoUpstream)

	w := do(t, env.srv, http.MethodGet, "/v1/settings", "")
	var got models.Settings
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if !got[models.SettingTI] || got[models.SettingSC] {
		t.Fatalf("expected default TI on, got %v", got)
	}

	w = do(t, env.srv, http.MethodPut, "/v1/settings", `{"SC_on":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got[models.SettingTI] || !got[models.SettingSC] {
		t.Errorf("expected SC on and TI off, got %v", got)
	}
	if !got[models.SettingConstants] {
		t.Error("unrelated settings must be preserved")
	}
}

func TestCacheStatsAndHealth(t *testing.T) {
	env := setupServer(t, echoUpstream)
	do(t, env.srv, http.MethodPost, "/v1/translate", `{"expression":"a"}`)
	do(t, env.srv, http.MethodPost, "/v1/translate", `{"expression":"a"}`)

	w := do(t, env.srv, http.MethodGet, "/v1/cache/stats", "")
	var stats models.CacheStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	w = do(t, env.srv, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := setupServer(t, echoUpstream)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/translate"},
		{http.MethodDelete, "/v1/settings"},
		{http.MethodPost, "/v1/cache/stats"},
	} {
		w := do(t, env.srv, tc.method, tc.path, "")
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, w.Code)
		}
	}
}
