package openairealtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExchangeSDP(t *testing.T) {
	var gotAuth, gotType, gotModel, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, "v=0\r\nanswer")
	}))
	defer srv.Close()

	c := NewClient(WithHTTPURL(srv.URL))
	answer, err := c.ExchangeSDP(context.Background(), "ek_123", ModelGPT4oMiniRealtimePreview20241217, "v=0\r\noffer")
	if err != nil {
		t.Fatalf("ExchangeSDP: %v", err)
	}
	if answer != "v=0\r\nanswer" {
		t.Errorf("answer = %q", answer)
	}
	if gotAuth != "Bearer ek_123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotType != ContentTypeSDP {
		t.Errorf("Content-Type = %q", gotType)
	}
	if gotModel != ModelGPT4oMiniRealtimePreview20241217 {
		t.Errorf("model = %q", gotModel)
	}
	if gotBody != "v=0\r\noffer" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestExchangeSDPDefaultModel(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotModel = r.URL.Query().Get("model")
		io.WriteString(w, "answer")
	}))
	defer srv.Close()

	if _, err := NewClient(WithHTTPURL(srv.URL)).ExchangeSDP(context.Background(), "t", "", "offer"); err != nil {
		t.Fatalf("ExchangeSDP: %v", err)
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q, want %q", gotModel, DefaultModel)
	}
}

func TestExchangeSDPNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(WithHTTPURL(srv.URL)).ExchangeSDP(context.Background(), "t", "", "offer")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("HTTPStatus = %d", apiErr.HTTPStatus)
	}
	if apiErr.Code != CodeSDPExchangeFailed {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "bad token") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCreateSession(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("OpenAI-Project"); got != "proj_1" {
			t.Errorf("OpenAI-Project = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		io.WriteString(w, `{"id":"sess_1","model":"m","client_secret":{"value":"ek_abc","expires_at":1700000000}}`)
	}))
	defer srv.Close()

	c := NewClient(WithAPIKey("sk-test"), WithProject("proj_1"), WithHTTPURL(srv.URL))
	td := SemanticVAD(EagernessLow, false)
	session, err := c.CreateSession(context.Background(), &SessionRequest{
		SessionConfig: SessionConfig{
			Voice:                    VoiceEcho,
			Instructions:             "be brief",
			InputAudioFormat:         AudioFormatPCM16,
			InputAudioNoiseReduction: &NoiseReduction{Type: NoiseReductionNearField},
			TurnDetection:            &td,
		},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ClientSecret.Value != "ek_abc" {
		t.Errorf("secret = %q", session.ClientSecret.Value)
	}
	if session.ClientSecret.Expiry().Unix() != 1700000000 {
		t.Errorf("expiry = %v", session.ClientSecret.Expiry())
	}

	if req["model"] != DefaultModel {
		t.Errorf("model = %v", req["model"])
	}
	if req["voice"] != VoiceEcho || req["instructions"] != "be brief" || req["input_audio_format"] != "pcm16" {
		t.Errorf("request = %v", req)
	}
	nr, _ := req["input_audio_noise_reduction"].(map[string]any)
	if nr["type"] != NoiseReductionNearField {
		t.Errorf("noise reduction = %v", req["input_audio_noise_reduction"])
	}
	turn, _ := req["turn_detection"].(map[string]any)
	if turn["type"] != VADSemanticVAD || turn["interrupt_response"] != false {
		t.Errorf("turn_detection = %v", turn)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	if _, err := NewClient().CreateSession(context.Background(), nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("no key: err = %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(WithAPIKey("k"), WithHTTPURL(srv.URL)).CreateSession(context.Background(), nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("err = %v", err)
	}
}

func TestCreateSessionMissingSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"sess_1"}`)
	}))
	defer srv.Close()

	_, err := NewClient(WithAPIKey("k"), WithHTTPURL(srv.URL)).CreateSession(context.Background(), nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != CodeSessionCreationFailed {
		t.Errorf("err = %v", err)
	}
}

func TestNewSessionUpdate(t *testing.T) {
	ev := NewSessionUpdate(SemanticVAD(EagernessLow, false))
	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	var got struct {
		EventID string `json:"event_id"`
		Type    string `json:"type"`
		Session map[string]json.RawMessage
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "session.update" {
		t.Errorf("type = %q", got.Type)
	}
	if !strings.HasPrefix(got.EventID, "evt_") || len(got.EventID) != 16 {
		t.Errorf("event_id = %q", got.EventID)
	}
	if len(got.Session) != 1 {
		t.Errorf("session has extra fields: %s", data)
	}
	want := `{"type":"semantic_vad","create_response":true,"interrupt_response":false,"eagerness":"low"}`
	if string(got.Session["turn_detection"]) != want {
		t.Errorf("turn_detection = %s, want %s", got.Session["turn_detection"], want)
	}
}

func TestSessionUpdateIDsUnique(t *testing.T) {
	a := NewSessionUpdate(SemanticVAD(EagernessLow, false))
	b := NewSessionUpdate(SemanticVAD(EagernessLow, false))
	if a.EventID == b.EventID {
		t.Errorf("duplicate event id %q", a.EventID)
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"input_audio_buffer.speech_started","event_id":"e1","audio_start_ms":120,"item_id":"i1"}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Type != EventTypeInputAudioBufferSpeechStarted || ev.AudioStartMs != 120 || ev.ItemID != "i1" {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Raw) == 0 {
		t.Error("Raw not set")
	}

	ev, err = ParseEvent([]byte(`{"type":"error","error":{"type":"invalid_request_error","code":"bad","message":"nope"}}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Error == nil || ev.Error.ToError().Error() != "openai-realtime: bad: nope" {
		t.Errorf("error event = %+v", ev.Error)
	}

	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Error("expected parse error")
	}
	if _, err := ParseEvent([]byte(`{"event_id":"x"}`)); err == nil {
		t.Error("expected error for missing type")
	}
}
