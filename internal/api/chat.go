package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatpanel/internal/errors"
	"github.com/diogo/chatpanel/internal/models"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 1 << 20

// Post sends a single request to the chat endpoint, without retrying
func (c *Client) Post(ctx context.Context, message string) (*models.ChatResponse, error) {
	return c.post(ctx, message, 0)
}

func (c *Client) post(ctx context.Context, message string, attempt int) (*models.ChatResponse, error) {
	body, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	requestID := c.newRequestID()
	req.Header.Set(models.HeaderRequestID, requestID)

	log := c.log.With().
		Str("request_id", requestID).
		Int("attempt", attempt).
		Logger()
	log.Debug().Str("endpoint", c.endpoint).Int("length", len(message)).Msg("sending chat request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("chat request failed")
		return nil, c.transportError(ctx, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	var data []byte
	if resp.Body != nil {
		data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, c.transportError(ctx, err)
		}
	}

	log.Debug().Int("status", resp.StatusCode).Msg("chat response received")
	return parseResponse(resp.StatusCode, data, c.endpoint)
}

// transportError classifies a failure of the round trip itself
func (c *Client) transportError(parent context.Context, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return fmt.Errorf("chat request aborted: %w", parentErr)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apierrors.NewTimeoutError(c.endpoint, err)
	}

	return apierrors.NewNetworkErrorWithEndpoint("send message", c.endpoint, err)
}

// parseResponse maps an HTTP status and body to a response envelope or error.
// A 429 is a rate limit regardless of body contents.
func parseResponse(status int, body []byte, endpoint string) (*models.ChatResponse, error) {
	if status == http.StatusTooManyRequests {
		return nil, apierrors.NewRateLimitError(endpoint)
	}

	if status < 200 || status > 299 {
		return nil, apierrors.NewServerError(status, endpoint, errorField(body))
	}

	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewServerError(status, endpoint, "")
	}

	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return nil, apierrors.NewServerError(status, endpoint, "")
	}

	return &models.ChatResponse{
		Status:   result.Get("status").String(),
		Response: result.Get("response").String(),
		Error:    result.Get("error").String(),
	}, nil
}

// errorField extracts a non-empty string "error" field from body
func errorField(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	field := gjson.GetBytes(body, "error")
	if field.Type != gjson.String {
		return ""
	}
	return field.String()
}
