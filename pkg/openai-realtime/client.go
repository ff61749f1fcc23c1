package openairealtime

import (
	"net/http"
)

// DefaultHTTPURL is the realtime endpoint used for SDP exchange; ephemeral
// sessions are created at DefaultHTTPURL + "/sessions".
const DefaultHTTPURL = "https://api.openai.com/v1/realtime"

// Client talks to the HTTP side of the OpenAI Realtime API: minting
// ephemeral sessions with a long-lived key, and exchanging SDP with an
// ephemeral token.
type Client struct {
	config *clientConfig
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey       string
	organization string
	project      string
	httpURL      string
	httpClient   *http.Client
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new OpenAI Realtime client.
//
// A client without an API key can still exchange SDP; CreateSession
// requires one (see WithAPIKey).
func NewClient(opts ...Option) *Client {
	cfg := &clientConfig{
		httpURL:    DefaultHTTPURL,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{config: cfg}
}

// WithAPIKey sets the standard API key, obtained from
// https://platform.openai.com/api-keys. Never ship it to a client.
func WithAPIKey(apiKey string) Option {
	return func(c *clientConfig) {
		c.apiKey = apiKey
	}
}

// WithOrganization sets the organization ID for API requests.
func WithOrganization(orgID string) Option {
	return func(c *clientConfig) {
		c.organization = orgID
	}
}

// WithProject sets the project ID for API requests.
func WithProject(projectID string) Option {
	return func(c *clientConfig) {
		c.project = projectID
	}
}

// WithHTTPURL sets the realtime HTTP endpoint.
func WithHTTPURL(url string) Option {
	return func(c *clientConfig) {
		c.httpURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// HTTPURL returns the configured realtime endpoint.
func (c *Client) HTTPURL() string {
	return c.config.httpURL
}

func (c *Client) setAccountHeaders(req *http.Request) {
	if c.config.organization != "" {
		req.Header.Set("OpenAI-Organization", c.config.organization)
	}
	if c.config.project != "" {
		req.Header.Set("OpenAI-Project", c.config.project)
	}
}
