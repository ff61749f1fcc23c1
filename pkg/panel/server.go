package panel

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

// sameOrigin keeps other sites from switching the microphone on.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Router serves the page and its API, with ctl behind the switch.
func (p *Panel) Router(ctl Controller) http.Handler {
	p.bind(ctl)

	r := chi.NewRouter()
	r.Handle("/*", newStaticHandler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", p.handleState)
		r.Post("/toggle", p.handleToggle)
		r.Get("/ws", p.handleWS)
	})
	return r
}

type stateResponse struct {
	State  State     `json:"state"`
	Recent []Message `json:"recent"`
}

func (p *Panel) handleState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, stateResponse{State: p.State(), Recent: p.Recent()})
}

type toggleRequest struct {
	On *bool `json:"on"`
}

type toggleResponse struct {
	On    bool   `json:"on"`
	Error string `json:"error,omitzero"`
}

var errMissingOn = errors.New(`body must be {"on": true|false}`)

func (p *Panel) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.On == nil {
		if err == nil {
			err = errMissingOn
		}
		respondJSON(w, http.StatusBadRequest, toggleResponse{Error: err.Error()})
		return
	}

	ctl := p.controller()
	if err := ctl.Toggle(r.Context(), *req.On); err != nil {
		p.logger.Warn("panel: toggle failed", "on", *req.On, "error", err)
		// The switch snaps back to whatever the session really is.
		respondJSON(w, http.StatusOK, toggleResponse{On: ctl.Active(), Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, toggleResponse{On: ctl.Active()})
}

func (p *Panel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := p.subscribe()
	if c == nil {
		return
	}
	defer p.unsubscribe(c)

	// Pages never send; reading only notices the close.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
