package credential

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/openai/openai-go"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
)

// ServerConfig describes the sessions the backend mints.
type ServerConfig struct {
	Model            string
	Voice            string
	Instructions     string
	TurnDetection    openairealtime.TurnDetection
	NoiseReduction   string
	InputAudioFormat string
	// PublicDir, if set, is served at / with index.html as the root page.
	PublicDir string
}

// DefaultServerConfig returns the stock session: the mini realtime model,
// the echo voice, near-field noise reduction, pcm16 input and semantic turn
// detection that lets the user interrupt.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Model:            openairealtime.DefaultModel,
		Voice:            openairealtime.VoiceEcho,
		Instructions:     DefaultInstructions,
		TurnDetection:    openairealtime.SemanticVAD(openairealtime.EagernessAuto, true),
		NoiseReduction:   openairealtime.NoiseReductionNearField,
		InputAudioFormat: openairealtime.AudioFormatPCM16,
	}
}

// SessionRequest builds the upstream session creation request.
func (c ServerConfig) SessionRequest() *openairealtime.SessionRequest {
	td := c.TurnDetection
	req := &openairealtime.SessionRequest{
		Model: c.Model,
		SessionConfig: openairealtime.SessionConfig{
			Voice:            c.Voice,
			Instructions:     c.Instructions,
			InputAudioFormat: c.InputAudioFormat,
			TurnDetection:    &td,
		},
	}
	if c.NoiseReduction != "" {
		req.InputAudioNoiseReduction = &openairealtime.NoiseReduction{Type: c.NoiseReduction}
	}
	return req
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics records credential requests.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithModels enables GET /models through the OpenAI API client.
func WithModels(c *openai.Client) ServerOption {
	return func(s *Server) {
		s.models = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// Server is the credential backend.
type Server struct {
	cfg      ServerConfig
	realtime *openairealtime.Client
	models   *openai.Client
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewServer creates a Server that mints sessions with realtime.
func NewServer(cfg ServerConfig, realtime *openairealtime.Client, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		realtime: realtime,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(allowAnyOrigin)

	r.Get(SessionPath, s.handleSession)
	r.Get("/models", s.handleModels)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	if s.cfg.PublicDir != "" {
		index := filepath.Join(s.cfg.PublicDir, "index.html")
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, index)
		})
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.PublicDir)))
	}
	return r
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitzero"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.realtime.CreateSession(r.Context(), s.cfg.SessionRequest())
	if err != nil {
		s.logger.Error("credential: create session", "error", err)
		s.metrics.CredentialIssued(false)
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to generate token",
			Details: err.Error(),
		})
		return
	}
	s.metrics.CredentialIssued(true)
	s.logger.Info("credential: session minted", "id", sess.ID, "model", sess.Model)
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		respondJSON(w, http.StatusNotImplemented, errorResponse{Error: "Model listing not configured"})
		return
	}
	page, err := s.models.Models.List(r.Context())
	if err != nil {
		s.logger.Error("credential: list models", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to fetch models",
			Details: err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, page.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"model":  s.cfg.Model,
	})
}

// allowAnyOrigin answers CORS preflights and lets any origin call the API.
func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
