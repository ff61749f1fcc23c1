package credential

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// upstream fakes the realtime sessions endpoint and the models API.
func upstream(t *testing.T, status int, body string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions":
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode upstream request: %v", err)
			}
			w.WriteHeader(status)
			io.WriteString(w, body)
		case "/models":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"object":"list","data":[{"id":"gpt-4o-mini-realtime-preview","object":"model","created":1,"owned_by":"system"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newBackend(t *testing.T, up *httptest.Server, cfg ServerConfig) (*httptest.Server, *observability.Metrics) {
	t.Helper()
	models := openai.NewClient(
		option.WithAPIKey("sk-test"),
		option.WithBaseURL(up.URL+"/"),
		option.WithMaxRetries(0),
	)
	metrics := observability.NewMetrics("test", nil)
	rt := openairealtime.NewClient(openairealtime.WithAPIKey("sk-test"), openairealtime.WithHTTPURL(up.URL))
	s := NewServer(cfg, rt, WithModels(&models), WithMetrics(metrics))
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv, metrics
}

func TestSessionMintsToken(t *testing.T) {
	up, sent := upstream(t, http.StatusOK,
		`{"id":"sess_1","model":"m","client_secret":{"value":"ek_123","expires_at":1700000000}}`)
	cfg := DefaultServerConfig()
	cfg.Instructions = "be brief"
	backend, _ := newBackend(t, up, cfg)

	secret, err := NewClient(backend.URL, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if secret.Value != "ek_123" || secret.ExpiresAt != 1700000000 {
		t.Errorf("secret = %+v", secret)
	}

	req := *sent
	if req["model"] != openairealtime.DefaultModel || req["voice"] != "echo" {
		t.Errorf("model/voice = %v/%v", req["model"], req["voice"])
	}
	if req["instructions"] != "be brief" || req["input_audio_format"] != "pcm16" {
		t.Errorf("request = %v", req)
	}
	nr, _ := req["input_audio_noise_reduction"].(map[string]any)
	if nr["type"] != "near_field" {
		t.Errorf("noise reduction = %v", nr)
	}
	td, _ := req["turn_detection"].(map[string]any)
	if td["type"] != "semantic_vad" || td["eagerness"] != "auto" || td["interrupt_response"] != true {
		t.Errorf("turn_detection = %v", td)
	}
}

func TestClientToken(t *testing.T) {
	up, _ := upstream(t, http.StatusOK, `{"client_secret":{"value":"ek_tok"}}`)
	backend, _ := newBackend(t, up, DefaultServerConfig())

	tok, err := NewClient(backend.URL+"/", nil).Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "ek_tok" {
		t.Errorf("Token() = %q", tok)
	}
}

func TestSessionUpstreamFailure(t *testing.T) {
	up, _ := upstream(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)
	backend, _ := newBackend(t, up, DefaultServerConfig())

	resp, err := http.Get(backend.URL + SessionPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "Failed to generate token" || body.Details == "" {
		t.Errorf("body = %+v", body)
	}

	_, err = NewClient(backend.URL, nil).Token(context.Background())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("Token() error = %v, want *ServerError", err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Message != "Failed to generate token" {
		t.Errorf("ServerError = %+v", se)
	}
	if got := err.Error(); got != "credential: server error: Failed to generate token" {
		t.Errorf("Error() = %q", got)
	}
	verr := &voice.Error{Kind: voice.KindCredential, Op: "get session token", Err: err}
	if got := verr.Status(); got != "Failed to get session token: Server error: Failed to generate token" {
		t.Errorf("Status() = %q", got)
	}
}

func TestClientRejectsMissingSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"sess_1"}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).Token(context.Background()); err != errNoSecret {
		t.Errorf("Token() error = %v, want %v", err, errNoSecret)
	}
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Token(context.Background())
	if err == nil || err.Error() != "credential: server error: Bad Gateway" {
		t.Errorf("Token() error = %v", err)
	}
}

func TestModels(t *testing.T) {
	up, _ := upstream(t, http.StatusOK, `{}`)
	backend, _ := newBackend(t, up, DefaultServerConfig())

	resp, err := http.Get(backend.URL + "/models")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var models []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		t.Fatal(err)
	}
	if len(models) != 1 || models[0].ID != "gpt-4o-mini-realtime-preview" {
		t.Errorf("models = %+v", models)
	}
}

func TestModelsUnconfigured(t *testing.T) {
	rt := openairealtime.NewClient(openairealtime.WithAPIKey("sk-test"))
	srv := httptest.NewServer(NewServer(DefaultServerConfig(), rt).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/models")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	up, _ := upstream(t, http.StatusOK, `{}`)
	backend, _ := newBackend(t, up, DefaultServerConfig())

	req, _ := http.NewRequest(http.MethodOptions, backend.URL+SessionPath, nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	up, _ := upstream(t, http.StatusOK, `{"client_secret":{"value":"ek"}}`)
	backend, _ := newBackend(t, up, DefaultServerConfig())

	if _, err := NewClient(backend.URL, nil).Token(context.Background()); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(backend.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(backend.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `test_credential_requests_total{outcome="ok"} 1`) {
		t.Errorf("metrics missing credential counter:\n%s", body)
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>voice</h1>"), 0o644)
	os.WriteFile(filepath.Join(dir, "script.js"), []byte("start()"), 0o644)

	rt := openairealtime.NewClient(openairealtime.WithAPIKey("sk-test"))
	cfg := DefaultServerConfig()
	cfg.PublicDir = dir
	srv := httptest.NewServer(NewServer(cfg, rt).Router())
	defer srv.Close()

	for path, want := range map[string]string{"/": "<h1>voice</h1>", "/script.js": "start()"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != want {
			t.Errorf("GET %s = %q, want %q", path, body, want)
		}
	}
}

func TestLoadInstructions(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	got, err := LoadInstructions(write("prompt.txt", "  speak slowly\n"))
	if err != nil || got != "speak slowly" {
		t.Errorf("text: %q, %v", got, err)
	}

	got, err = LoadInstructions(write("prompt.yaml", "instructions: |\n  be kind\n  be brief\n"))
	if err != nil || got != "be kind\nbe brief" {
		t.Errorf("yaml: %q, %v", got, err)
	}

	if _, err := LoadInstructions(write("empty.yml", "other: 1\n")); err == nil {
		t.Error("empty yaml accepted")
	}
	if _, err := LoadInstructions(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("missing file accepted")
	}
}
