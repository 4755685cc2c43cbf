package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/events"
)

const (
	reconnectMinDelay = 500 * time.Millisecond
	reconnectMaxDelay = 10 * time.Second
)

// SubscribeEvents streams daemon events until ctx is done. The connection
// is re-established with backoff when it drops. The channel is closed when
// ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	out := make(chan events.Event, 16)

	go func() {
		defer close(out)

		delay := reconnectMinDelay
		for {
			connected, err := c.streamOnce(ctx, out)
			if ctx.Err() != nil {
				return
			}
			if connected {
				delay = reconnectMinDelay
			}
			logrus.WithError(err).WithField("retryIn", delay.String()).Debug("event stream disconnected")

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
		}
	}()

	return out
}

// streamOnce reads one SSE connection until it ends. connected reports
// whether the daemon accepted the stream.
func (c *Client) streamOnce(ctx context.Context, out chan<- events.Event) (connected bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/events", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		_, err := checkResponse(resp.StatusCode, string(b))
		return false, err
	}

	return true, parseSSE(ctx, resp.Body, out)
}

// parseSSE decodes a text/event-stream into events. Only the event and data
// fields are used. Ping events are dropped.
func parseSSE(ctx context.Context, r io.Reader, out chan<- events.Event) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var name string
	var data []string

	dispatch := func() error {
		defer func() { name, data = "", nil }()
		if len(data) == 0 || name == events.Ping {
			return nil
		}
		if name == "" {
			name = "message"
		}
		ev := events.Event{Name: name, Data: []byte(strings.Join(data, "\n"))}
		select {
		case out <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	// Flush a trailing event without the final blank line.
	if err := dispatch(); err != nil {
		return err
	}
	return io.EOF
}
