package wix

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
	"traffic-publisher/src/network"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "measurements": [
    {"type": "sessions", "values": [{"date": "2024-01-01", "value": 10}, {"date": "2024-01-02", "value": 20}]},
    {"type": "orders", "values": []}
  ]
}`

func settingsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wix_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func newSource(t *testing.T, baseURL string, creds models.MCredentials) (*WixAnalyticsSource, error) {
	t.Helper()
	log := logger.NewLogger(io.Discard, "test", "INFO")
	nm, err := network.NewNetworkManager(time.Second, "", log)
	require.NoError(t, err)

	cfg := models.MAnalyticsConfig{
		SiteID:     "site-1",
		ConfigPath: settingsFile(t, `{"base_url": "`+baseURL+`"}`),
	}
	return NewWixAnalyticsSource(cfg, creds, nm, log)
}

func TestConstructorRequiresCredentials(t *testing.T) {
	_, err := newSource(t, "http://unused", models.MCredentials{})
	require.Error(t, err)
	assert.True(t, helpers.IsConfigurationError(err))
}

func TestConstructorRejectsMissingOrMalformedSettings(t *testing.T) {
	log := logger.NewLogger(io.Discard, "test", "INFO")
	creds := models.MCredentials{WixOAuthToken: "tok"}

	_, err := NewWixAnalyticsSource(models.MAnalyticsConfig{ConfigPath: filepath.Join(t.TempDir(), "none.json")}, creds, nil, log)
	assert.True(t, helpers.IsConfigurationError(err))

	_, err = NewWixAnalyticsSource(models.MAnalyticsConfig{ConfigPath: settingsFile(t, "{not json")}, creds, nil, log)
	assert.True(t, helpers.IsConfigurationError(err))
}

func TestConstructorDefaults(t *testing.T) {
	log := logger.NewLogger(io.Discard, "test", "INFO")
	s, err := NewWixAnalyticsSource(
		models.MAnalyticsConfig{ConfigPath: settingsFile(t, `{}`)},
		models.MCredentials{WixOAuthToken: "tok"},
		nil, log,
	)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	assert.Equal(t, []string{"sessions", "sales", "orders", "contacts"}, s.MeasurementTypes)
}

func TestConstructorResolvesDaysBack(t *testing.T) {
	log := logger.NewLogger(io.Discard, "test", "INFO")
	creds := models.MCredentials{WixOAuthToken: "tok"}

	s, err := NewWixAnalyticsSource(models.MAnalyticsConfig{ConfigPath: settingsFile(t, `{}`)}, creds, nil, log)
	require.NoError(t, err)
	assert.Equal(t, DefaultDaysBack, s.DaysBack)

	s, err = NewWixAnalyticsSource(models.MAnalyticsConfig{ConfigPath: settingsFile(t, `{"days_back": 14}`)}, creds, nil, log)
	require.NoError(t, err)
	assert.Equal(t, 14, s.DaysBack)

	s, err = NewWixAnalyticsSource(models.MAnalyticsConfig{DaysBack: 7, ConfigPath: settingsFile(t, `{"days_back": 14}`)}, creds, nil, log)
	require.NoError(t, err)
	assert.Equal(t, 7, s.DaysBack)
}

func TestFetchRecentUsesConfiguredWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-06", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-01-10", r.URL.Query().Get("endDate"))
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	s, err := newSource(t, srv.URL, models.MCredentials{WixOAuthToken: "tok"})
	require.NoError(t, err)
	s.DaysBack = 4
	s.Now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.Local) }

	_, err = s.FetchRecent(context.Background(), 0)
	require.NoError(t, err)

	summary, err := s.SummarizeRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.PeriodDays)
}

func TestFetchRecentWithAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "site-1", r.Header.Get("wix-site-id"))
		assert.Equal(t, "2024-01-03", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-01-10", r.URL.Query().Get("endDate"))
		assert.Equal(t, []string{"sessions", "sales", "orders", "contacts"}, r.URL.Query()["measurementTypes"])
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	s, err := newSource(t, srv.URL, models.MCredentials{WixAPIKey: "key-1", WixOAuthToken: "ignored"})
	require.NoError(t, err)
	s.Now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.Local) }

	series, err := s.FetchRecent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "sessions", series[0].Type)
	assert.Len(t, series[0].Samples, 2)
}

func TestSummarizeRecentWithOAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("wix-site-id"))
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	s, err := newSource(t, srv.URL, models.MCredentials{WixOAuthToken: "tok"})
	require.NoError(t, err)

	summary, err := s.SummarizeRecent(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 30, summary.PeriodDays)
	assert.Equal(t, models.SourceAnalyticsAPI, summary.DataSource)
	assert.Equal(t, 30.0, summary.Metrics["sessions"].Total)
	assert.Equal(t, 15.0, summary.Metrics["sessions"].DailyAverage)
	assert.Zero(t, summary.Metrics["orders"].DataPoints)
	assert.Nil(t, summary.Metrics["orders"].DateRange.Start)
}

func TestSummarizeRecentOrdersVendorValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"measurements": [{"type": "sessions", "values": [{"date": "2024-01-02", "value": 20}, {"date": "2024-01-01", "value": 10}]}]}`))
	}))
	defer srv.Close()

	s, err := newSource(t, srv.URL, models.MCredentials{WixOAuthToken: "tok"})
	require.NoError(t, err)

	summary, err := s.SummarizeRecent(context.Background(), 2)
	require.NoError(t, err)

	agg := summary.Metrics["sessions"]
	require.NotNil(t, agg.DateRange.Start)
	require.NotNil(t, agg.DateRange.End)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 1}, *agg.DateRange.Start)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 2}, *agg.DateRange.End)
	assert.Equal(t, 30.0, agg.Total)

	series, err := s.FetchRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Len(t, series[0].Samples, 2)
	assert.Equal(t, 10.0, series[0].Samples[0].Value)
	assert.Equal(t, 20.0, series[0].Samples[1].Value)
}

func TestFetchRangePropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := newSource(t, srv.URL, models.MCredentials{WixOAuthToken: "tok"})
	require.NoError(t, err)

	_, err = s.FetchRecent(context.Background(), 1)
	var fetchErr *helpers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
}

func TestParseAnalyticsResponseRejectsBadPayload(t *testing.T) {
	_, err := parseAnalyticsResponse([]byte(`{"measurements": [{"type": "sales", "values": [{"date": "soon", "value": 1}]}]}`))
	var fetchErr *helpers.FetchError
	assert.True(t, errors.As(err, &fetchErr))

	_, err = parseAnalyticsResponse([]byte(`<html>`))
	assert.True(t, errors.As(err, &fetchErr))
}
