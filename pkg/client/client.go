package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Client talks to the padbatt daemon over its unix socket.
type Client struct {
	socketPath string
	httpClient *http.Client
}

// NewClient creates a Client for the daemon listening on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					conn, err := d.DialContext(ctx, "unix", socketPath)
					if err != nil {
						// A stale socket file refuses connections.
						if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
							return nil, ErrDaemonNotRunning
						}
						if errors.Is(err, os.ErrPermission) {
							return nil, ErrPermissionDenied
						}
						logrus.Errorf("failed to connect to unix socket: %v", err)
						return nil, err
					}
					return conn, nil
				},
			},
		},
	}
}

// SocketPath returns the socket the client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// SendContext sends a request to the daemon and returns the response body.
func (c *Client) SendContext(ctx context.Context, method string, path string, data string) (string, error) {
	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"data":   data,
		"unix":   c.socketPath,
	}).Debug("sending request")

	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut:
	default:
		return "", fmt.Errorf("unknown method: %s", method)
	}

	var body io.Reader
	if data != "" {
		body = strings.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return checkResponse(resp.StatusCode, string(b))
}

func checkResponse(code int, body string) (string, error) {
	switch {
	case code == http.StatusNotFound:
		return "", ErrNotFound
	case code < 200 || code > 299:
		return "", fmt.Errorf("got %d: %s", code, body)
	}
	return body, nil
}

// Send is SendContext with a background context.
func (c *Client) Send(method string, path string, data string) (string, error) {
	return c.SendContext(context.Background(), method, path, data)
}

// Get sends a GET request.
func (c *Client) Get(path string) (string, error) {
	return c.Send(http.MethodGet, path, "")
}

// Put sends a PUT request.
func (c *Client) Put(path string, data string) (string, error) {
	return c.Send(http.MethodPut, path, data)
}
