package openairealtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DataChannelLabel is the label of the event data channel.
const DataChannelLabel = "oai-events"

// ContentTypeSDP is the media type of offer and answer bodies.
const ContentTypeSDP = "application/sdp"

// ExchangeSDP posts a local SDP offer to the realtime endpoint with an
// ephemeral token and returns the answer SDP. Any 2xx status is success.
func (c *Client) ExchangeSDP(ctx context.Context, token, model, offer string) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	endpoint := fmt.Sprintf("%s?model=%s", c.config.httpURL, url.QueryEscape(model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(offer))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", ContentTypeSDP)

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &Error{
			Code:       CodeSDPExchangeFailed,
			Message:    fmt.Sprintf("failed to exchange SDP: %s", strings.TrimSpace(string(body))),
			HTTPStatus: resp.StatusCode,
		}
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(answer), nil
}
