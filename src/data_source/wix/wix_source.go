package wix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"traffic-publisher/src/analysis/core"
	"traffic-publisher/src/helpers"
	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	"cloud.google.com/go/civil"
)

const DefaultBaseURL = "https://www.wixapis.com/analytics/v1"

// DefaultDaysBack applies when neither the YAML config nor the settings file sets days_back.
const DefaultDaysBack = 30

// VendorSettings is the JSON settings file read once at construction.
type VendorSettings struct {
	BaseURL          string   `json:"base_url"`
	MeasurementTypes []string `json:"measurement_types"`
	DaysBack         int      `json:"days_back"`
}

type WixAnalyticsSource struct {
	SiteID           string
	BaseURL          string
	MeasurementTypes []string
	DaysBack         int
	Network          interfaces.INetworkManager
	Logger           *logger.Logger
	Now              func() time.Time
	headers          map[string]string
}

// -----------------------------------------------------------------------------

func (s *WixAnalyticsSource) Name() string {
	return "wix"
}

// -----------------------------------------------------------------------------

// NewWixAnalyticsSource loads the vendor settings file and resolves credentials.
// Exactly one of the API key or OAuth token must be usable; when both are set
// the API key wins. Any problem is a ConfigurationError.
func NewWixAnalyticsSource(
	cfg models.MAnalyticsConfig,
	creds models.MCredentials,
	netMgr interfaces.INetworkManager,
	log *logger.Logger,
) (*WixAnalyticsSource, error) {
	settings, err := LoadVendorSettings(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	s := &WixAnalyticsSource{
		SiteID:  cfg.SiteID,
		Network: netMgr,
		Logger:  log.Named("WixAnalyticsSource"),
		Now:     time.Now,
	}

	// Precedence: YAML config, then vendor settings file, then defaults.
	switch {
	case cfg.BaseURL != "":
		s.BaseURL = cfg.BaseURL
	case settings.BaseURL != "":
		s.BaseURL = settings.BaseURL
	default:
		s.BaseURL = DefaultBaseURL
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")

	switch {
	case len(cfg.MeasurementTypes) > 0:
		s.MeasurementTypes = cfg.MeasurementTypes
	case len(settings.MeasurementTypes) > 0:
		s.MeasurementTypes = settings.MeasurementTypes
	default:
		s.MeasurementTypes = models.DefaultMeasurementTypes()
	}

	switch {
	case cfg.DaysBack > 0:
		s.DaysBack = cfg.DaysBack
	case settings.DaysBack > 0:
		s.DaysBack = settings.DaysBack
	default:
		s.DaysBack = DefaultDaysBack
	}

	switch {
	case creds.WixAPIKey != "":
		if s.SiteID == "" {
			return nil, helpers.NewConfigurationError("site id is required with API key authentication", nil)
		}
		s.headers = map[string]string{
			"Authorization": "Bearer " + creds.WixAPIKey,
			"wix-site-id":   s.SiteID,
			"Content-Type":  "application/json",
		}
		s.Logger.Info("Configured API Key authentication")
	case creds.WixOAuthToken != "":
		s.headers = map[string]string{
			"Authorization": "Bearer " + creds.WixOAuthToken,
			"Content-Type":  "application/json",
		}
		s.Logger.Info("Configured OAuth authentication")
	default:
		return nil, helpers.NewConfigurationError("either WIX_API_KEY or WIX_OAUTH_TOKEN must be provided", nil)
	}

	return s, nil
}

// -----------------------------------------------------------------------------

// LoadVendorSettings reads the JSON settings file. A missing or malformed file
// is a ConfigurationError.
func LoadVendorSettings(path string) (VendorSettings, error) {
	var settings VendorSettings

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, helpers.NewConfigurationError(fmt.Sprintf("failed to read vendor settings '%s'", path), err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, helpers.NewConfigurationError(fmt.Sprintf("failed to parse vendor settings '%s'", path), err)
	}
	return settings, nil
}

// -----------------------------------------------------------------------------

type analyticsResponse struct {
	Measurements []struct {
		Type   string `json:"type"`
		Values []struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"values"`
	} `json:"measurements"`
}

// -----------------------------------------------------------------------------

// FetchRange issues one GET for [start, end]. Errors are returned as FetchError, unretried.
func (s *WixAnalyticsSource) FetchRange(ctx context.Context, start, end civil.Date, types []string) ([]models.MMeasurementSeries, error) {
	if len(types) == 0 {
		types = s.MeasurementTypes
	}

	params := url.Values{}
	params.Set("startDate", start.String())
	params.Set("endDate", end.String())
	for _, t := range types {
		params.Add("measurementTypes", t)
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/data", params, s.headers)
	if err != nil {
		s.Logger.Error("Failed to retrieve analytics data: %v", err)
		return nil, err
	}

	series, err := parseAnalyticsResponse(body)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Retrieved analytics data from %s to %s (%d measurement types)", start, end, len(series))
	return series, nil
}

// -----------------------------------------------------------------------------

// FetchRecent fetches [today - daysBack, today], both ends inclusive. A
// non-positive daysBack uses the configured window.
func (s *WixAnalyticsSource) FetchRecent(ctx context.Context, daysBack int) ([]models.MMeasurementSeries, error) {
	if daysBack <= 0 {
		daysBack = s.DaysBack
	}
	start, end := s.recentRange(daysBack)
	return s.FetchRange(ctx, start, end, nil)
}

// -----------------------------------------------------------------------------

// SummarizeRecent aggregates the last daysBack days, or the configured window
// when daysBack is not positive.
func (s *WixAnalyticsSource) SummarizeRecent(ctx context.Context, daysBack int) (models.MTrafficSummary, error) {
	if daysBack <= 0 {
		daysBack = s.DaysBack
	}
	series, err := s.FetchRecent(ctx, daysBack)
	if err != nil {
		return models.MTrafficSummary{}, err
	}
	return core.Summarize(series, nil, daysBack, models.SourceAnalyticsAPI, s.Now()), nil
}

// -----------------------------------------------------------------------------

func (s *WixAnalyticsSource) recentRange(daysBack int) (civil.Date, civil.Date) {
	end := civil.DateOf(s.Now())
	return end.AddDays(-daysBack), end
}

// -----------------------------------------------------------------------------

// parseAnalyticsResponse converts each measurement into a chronologically
// ordered series, whatever order the API sent the values in.
func parseAnalyticsResponse(body []byte) ([]models.MMeasurementSeries, error) {
	var resp analyticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFetchError("failed to decode analytics response", 0, err)
	}

	series := make([]models.MMeasurementSeries, 0, len(resp.Measurements))
	for _, m := range resp.Measurements {
		samples := make([]models.MMeasurementSample, 0, len(m.Values))
		for _, v := range m.Values {
			d, err := parseAPIDate(v.Date)
			if err != nil {
				return nil, helpers.NewFetchError(fmt.Sprintf("invalid date '%s' for %s", v.Date, m.Type), 0, err)
			}
			samples = append(samples, models.MMeasurementSample{Date: d, Value: v.Value})
		}
		core.SortSamples(samples)
		series = append(series, models.MMeasurementSeries{Type: m.Type, Samples: samples})
	}
	return series, nil
}

func parseAPIDate(s string) (civil.Date, error) {
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}
