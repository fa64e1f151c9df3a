package push

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"aipm/internal/logging"
	"aipm/internal/types"
)

const (
	dataPrefix       = "data:"
	reconnectMin     = time.Second
	reconnectMax     = 30 * time.Second
	healthyConnAge   = 30 * time.Second
	scannerBufferCap = 1 << 20
)

// Listener keeps a long-lived subscription to the dashboard's event stream
// and republishes every frame into the hub. It reconnects with backoff until
// its context is cancelled.
type Listener struct {
	baseURL string
	token   string
	hub     *Hub
	http    *http.Client
	logger  logging.Logger
}

func NewListener(baseURL, token string, hub *Hub, logger logging.Logger) *Listener {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Listener{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		hub:     hub,
		http:    &http.Client{},
		logger:  logger,
	}
}

func (l *Listener) Run(ctx context.Context) error {
	if l.hub == nil {
		return errors.New("listener requires a hub")
	}
	var backoff time.Duration
	for {
		connectedAt := time.Now()
		err := l.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		backoff = reconnectDelay(backoff, time.Since(connectedAt))
		l.logger.Warn("push stream lost, reconnecting",
			logging.F("err", err),
			logging.F("backoff", backoff.String()))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reconnectDelay doubles the previous delay, capped, but starts over after
// a connection that held long enough to count as healthy.
func reconnectDelay(prev, connAge time.Duration) time.Duration {
	if prev <= 0 || connAge >= healthyConnAge {
		return reconnectMin
	}
	next := prev * 2
	if next > reconnectMax {
		next = reconnectMax
	}
	return next
}

func (l *Listener) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/v1/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("push stream status " + resp.Status)
	}
	l.logger.Debug("push stream connected")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferCap)
	var data []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			l.publish(data)
			data = data[:0]
			continue
		}
		if strings.HasPrefix(line, dataPrefix) {
			data = append(data, strings.TrimSpace(line[len(dataPrefix):]))
		}
	}
	l.publish(data)
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("push stream closed")
}

func (l *Listener) publish(data []string) {
	if len(data) == 0 {
		return
	}
	var event types.PushEvent
	if err := json.Unmarshal([]byte(strings.Join(data, "\n")), &event); err != nil {
		l.logger.Debug("dropping malformed push frame", logging.F("err", err))
		return
	}
	l.hub.Publish(event)
}
