package openairealtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoAPIKey is returned by CreateSession on a client without an API key.
var ErrNoAPIKey = errors.New("openai-realtime: API key is required")

// SessionRequest is the body of an ephemeral session creation request.
type SessionRequest struct {
	// Model is the model ID to use.
	// Default: gpt-4o-mini-realtime-preview-2024-12-17
	Model string `json:"model"`

	SessionConfig
}

// ClientSecret is the ephemeral credential handed to a browser or device.
type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitzero"`
}

// Expiry returns the expiry as a time, or the zero time if unset.
func (s ClientSecret) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// CreateSession mints an ephemeral realtime session. The returned resource
// carries the client secret used as the bearer token for ExchangeSDP.
func (c *Client) CreateSession(ctx context.Context, sr *SessionRequest) (*SessionResource, error) {
	if c.config.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if sr == nil {
		sr = &SessionRequest{}
	}
	if sr.Model == "" {
		sr.Model = DefaultModel
	}

	jsonBody, err := json.Marshal(sr)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.httpURL+"/sessions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.config.apiKey)
	req.Header.Set("Content-Type", "application/json")
	c.setAccountHeaders(req)

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &Error{
			Code:       CodeSessionCreationFailed,
			Message:    fmt.Sprintf("failed to create session: %s", string(body)),
			HTTPStatus: resp.StatusCode,
		}
	}

	var session SessionResource
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("openai-realtime: decode session: %w", err)
	}
	if session.ClientSecret == nil || session.ClientSecret.Value == "" {
		return nil, &Error{
			Code:    CodeSessionCreationFailed,
			Message: "response has no client_secret",
		}
	}
	return &session, nil
}
