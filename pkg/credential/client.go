package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// SessionPath is the backend route that mints a session.
const SessionPath = "/session"

var errNoSecret = errors.New("credential: response has no client_secret.value")

// ServerError is a non-2xx reply from the credential backend.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("credential: server error: %s", e.Message)
}

// StatusText is the text shown to the user.
func (e *ServerError) StatusText() string {
	return "Server error: " + e.Message
}

// Client fetches ephemeral tokens from a credential backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the backend at baseURL. A nil httpClient
// uses one with a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Token returns the client secret of a freshly minted session.
func (c *Client) Token(ctx context.Context) (string, error) {
	secret, err := c.Fetch(ctx)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

// Fetch mints a session and returns its client secret. Backend failures
// carry the backend's error text.
func (c *Client) Fetch(ctx context.Context) (*openairealtime.ClientSecret, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+SessionPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}

	var sess openairealtime.SessionResource
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("credential: decode session: %w", err)
	}
	if sess.ClientSecret == nil || sess.ClientSecret.Value == "" {
		return nil, errNoSecret
	}
	return sess.ClientSecret, nil
}

var _ voice.CredentialSource = (*Client)(nil)
