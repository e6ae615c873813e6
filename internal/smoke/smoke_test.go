package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infermesh/internal/config"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "http://172.18.255.200:80/v1/completions", URL("172.18.255.200", 80, "/v1/completions"))
	assert.Equal(t, "http://[fd00::1]:80/v1/completions", URL("fd00::1", 80, "/v1/completions"))
}

func TestSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Gateway-Destination-Endpoint", "10.244.0.12:8000")
		_, _ = w.Write([]byte(`{"choices":[{"text":"A city of fog"}]}`))
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.Default().Smoke
	cfg.Port = port
	var out bytes.Buffer

	status, err := NewClient(srv.Client(), &out).Send(context.Background(), host, cfg)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{
		"model":       "meta-llama/Llama-3.1-8B-Instruct",
		"prompt":      "Write as if you were a critic: San Francisco",
		"max_tokens":  float64(100),
		"temperature": float64(0),
	}, got)
	assert.Contains(t, out.String(), "HTTP/1.1 200 OK")
	assert.Contains(t, out.String(), "X-Gateway-Destination-Endpoint: 10.244.0.12:8000")
	assert.Contains(t, out.String(), `{"choices":[{"text":"A city of fog"}]}`)
}

func TestSend_ErrorStatusIsPrinted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no healthy upstream", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	host, portStr, _ := net.SplitHostPort(srv.Listener.Addr().String())
	port, _ := strconv.Atoi(portStr)
	cfg := config.Default().Smoke
	cfg.Port = port
	var out bytes.Buffer

	status, err := NewClient(nil, &out).Send(context.Background(), host, cfg)

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, out.String(), "503 Service Unavailable")
	assert.Contains(t, out.String(), "no healthy upstream")
}

func TestSend_EmptyAddress(t *testing.T) {
	_, err := NewClient(nil, &bytes.Buffer{}).Send(context.Background(), "", config.Default().Smoke)

	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestSend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host, portStr, _ := net.SplitHostPort(srv.Listener.Addr().String())
	port, _ := strconv.Atoi(portStr)
	srv.Close()
	cfg := config.Default().Smoke
	cfg.Port = port

	_, err := NewClient(nil, &bytes.Buffer{}).Send(context.Background(), host, cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "request to http://")
}
