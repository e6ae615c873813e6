package envresolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEmptyTag is returned when the version source answers with an empty body.
var ErrEmptyTag = errors.New("version source returned an empty tag")

// maxTagBytes bounds the body read from the version source.
const maxTagBytes = 4096

// FetchTag reads the latest build tag from url. A nil client uses
// http.DefaultClient.
func FetchTag(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build version request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch version from %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch version from %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTagBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read version from %s: %w", url, err)
	}

	tag := strings.TrimSpace(string(body))
	if tag == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyTag, url)
	}
	return tag, nil
}

// ResolveTag returns override when set and fetches the tag otherwise.
func ResolveTag(ctx context.Context, client *http.Client, override, url string) (string, error) {
	if override != "" {
		return override, nil
	}
	return FetchTag(ctx, client, url)
}
