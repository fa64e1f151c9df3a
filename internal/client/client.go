package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"aipm/internal/logging"
	"aipm/internal/types"
)

// Client talks to the agent-session endpoints of the dashboard server. It is
// a plain request/response wrapper; all orchestration lives in the session
// package.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  logging.Logger
}

func New(baseURL, token string, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{},
		logger:  logger,
	}
}

func (c *Client) StartSession(ctx context.Context, req StartSessionRequest) (*StartSessionResponse, error) {
	var resp StartSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/agent-sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID, text string) (*SendMessageResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	path := fmt.Sprintf("/v1/agent-sessions/%s/messages", sessionID)
	var resp SendMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, path, SendMessageRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateDraft(ctx context.Context, sessionID string, draft types.Draft) (*UpdateDraftResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	path := fmt.Sprintf("/v1/agent-sessions/%s/draft", sessionID)
	var resp UpdateDraftResponse
	if err := c.doJSON(ctx, http.MethodPatch, path, UpdateDraftRequest{Draft: draft}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ConfirmSession(ctx context.Context, sessionID string) (*ConfirmResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	path := fmt.Sprintf("/v1/agent-sessions/%s/confirm", sessionID)
	var resp ConfirmResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/v1/agent-sessions/"+sessionID, nil, nil)
}

// SendMessageStream posts the message and decodes the SSE response body into
// a channel of stream events. The channel closes when the stream ends; the
// returned cancel func aborts the request.
func (c *Client) SendMessageStream(ctx context.Context, sessionID, text string) (<-chan types.StreamEvent, func(), error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil, errors.New("session id is required")
	}
	ctx, cancel := context.WithCancel(ctx)
	body, err := json.Marshal(SendMessageRequest{Text: text})
	if err != nil {
		cancel()
		return nil, nil, err
	}
	url := fmt.Sprintf("%s/v1/agent-sessions/%s/messages/stream", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan types.StreamEvent, 256)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		decoder := &Decoder{}
		buf := make([]byte, 4096)
		count := 0
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				for _, event := range decoder.Feed(buf[:n]) {
					select {
					case ch <- event:
						count++
					case <-ctx.Done():
						return
					}
				}
			}
			if readErr != nil {
				if event, ok := decoder.Close(); ok {
					select {
					case ch <- event:
						count++
					case <-ctx.Done():
					}
				}
				if readErr != io.EOF {
					c.logger.Debug("stream read ended", logging.F("session_id", sessionID), logging.F("err", readErr))
				}
				c.logger.Debug("stream closed", logging.F("session_id", sessionID), logging.F("events", count))
				return
			}
		}
	}()

	return ch, cancel, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	c.authorize(req)

	c.logger.Debug("api request", logging.F("method", method), logging.F("path", path), logging.F("request_id", requestID))
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}
