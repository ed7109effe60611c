package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, timeout time.Duration) *NetworkManager {
	t.Helper()
	nm, err := NewNetworkManager(timeout, "", logger.NewLogger(io.Discard, "test", "INFO"))
	require.NoError(t, err)
	return nm
}

func TestGetSendsParamsAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"sessions", "sales"}, r.URL.Query()["measurementTypes"])
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	params := url.Values{}
	params.Set("startDate", "2024-01-01")
	params["measurementTypes"] = []string{"sessions", "sales"}

	body, err := newManager(t, time.Second).Get(context.Background(), srv.URL+"/data", params, map[string]string{"Authorization": "Bearer k"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetNon2xxIsFetchErrorWithoutRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newManager(t, time.Second).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)

	var fetchErr *helpers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, calls)
}

func TestGetTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newManager(t, time.Second).Get(context.Background(), addr, nil, nil)
	var fetchErr *helpers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
}

func TestGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := newManager(t, 50*time.Millisecond).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewNetworkManagerRejectsBadProxy(t *testing.T) {
	_, err := NewNetworkManager(time.Second, "http://[::1", logger.NewLogger(io.Discard, "test", "INFO"))
	require.Error(t, err)
	assert.True(t, helpers.IsConfigurationError(err))
}
