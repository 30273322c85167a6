package cli

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/textremind/internal/config"
	"github.com/aretw0/textremind/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestNewBackend_Memory(t *testing.T) {
	cfg := config.Default()
	var logs bytes.Buffer
	b, err := NewBackend(cfg, logging.NewWriter(&logs, 0, logging.FormatText))
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Locker, "a single process needs no lock")
	assert.Contains(t, logs.String(), "twilio is not configured")

	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	status, body := post(t, srv.URL+"/send_verification", `{"number":"5551234567"}`)
	assert.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, logs.String(), "Your verification code for TextRemind is")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `textremind_requests_total{endpoint="send_verification",status="200"} 1`)
}

func TestNewBackend_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Addr = mr.Addr()
	cfg.Server.Metrics = false

	b, err := NewBackend(cfg, logging.NewNop())
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.Locker)

	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	status, _ := post(t, srv.URL+"/send_verification", `{"number":"5551234567"}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, mr.Exists("textremind:code:5551234567"))

	mr.Close()
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewBackend_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "etcd"
	_, err := NewBackend(cfg, logging.NewNop())
	assert.ErrorContains(t, err, `unknown store driver "etcd"`)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownTimeout = time.Second
	b, err := NewBackend(cfg, logging.NewNop())
	require.NoError(t, err)
	defer b.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, b, cfg, logging.NewNop()) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	status, body := post(t, url+"/check", `{"number":"5551234567"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"verified":false}`, body)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not stop")
	}
}
