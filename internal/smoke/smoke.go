// Package smoke sends the single completion request that exercises the
// gateway, the endpoint picker and a simulated model server end to end.
// The response is printed, not asserted.
package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/imamik/infermesh/internal/config"
)

// ErrEmptyAddress guards against sending a request to a host-less URL.
var ErrEmptyAddress = errors.New("gateway address is empty")

const defaultTimeout = 2 * time.Minute

// Client posts completion requests.
type Client struct {
	http *http.Client
	out  io.Writer
}

// NewClient creates a Client writing responses to out. A nil httpClient gets
// a client with a two minute timeout.
func NewClient(httpClient *http.Client, out io.Writer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{http: httpClient, out: out}
}

// URL builds http://<address>:<port><path>.
func URL(address string, port int, path string) string {
	return "http://" + net.JoinHostPort(address, strconv.Itoa(port)) + path
}

// Send posts cfg.Request to the gateway at address and prints the status
// line, headers and body. Any HTTP status is accepted.
func (c *Client) Send(ctx context.Context, address string, cfg config.SmokeConfig) (int, error) {
	if address == "" {
		return 0, ErrEmptyAddress
	}

	body, err := json.Marshal(cfg.Request)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	url := URL(address, cfg.Port, cfg.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := fmt.Fprintf(c.out, "%s %s\n", resp.Proto, resp.Status); err != nil {
		return resp.StatusCode, err
	}
	if err := resp.Header.Write(c.out); err != nil {
		return resp.StatusCode, err
	}
	if _, err := io.WriteString(c.out, "\r\n"); err != nil {
		return resp.StatusCode, err
	}
	if _, err := io.Copy(c.out, resp.Body); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	_, _ = io.WriteString(c.out, "\n")
	return resp.StatusCode, nil
}
