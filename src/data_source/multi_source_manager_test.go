package datasource

import (
	"context"
	"errors"
	"io"
	"testing"

	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchRange(context.Context, civil.Date, civil.Date, []string) ([]models.MMeasurementSeries, error) {
	return nil, nil
}

func (s *stubSource) FetchRecent(context.Context, int) ([]models.MMeasurementSeries, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []models.MMeasurementSeries{{Type: models.MeasurementSessions}}, nil
}

func (s *stubSource) SummarizeRecent(context.Context, int) (models.MTrafficSummary, error) {
	return models.MTrafficSummary{}, nil
}

func TestFetchRecentKeepsOrder(t *testing.T) {
	a, b := &stubSource{name: "b"}, &stubSource{name: "a"}
	m := NewMultiSourceManager([]interfaces.IDataSource{a, b, &stubSource{name: "b"}}, logger.NewLogger(io.Discard, "test", "INFO"))

	results, err := m.FetchRecent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Name)
	assert.Equal(t, "a", results[1].Name)
	assert.Equal(t, []string{"b", "a"}, m.Names())
}

func TestFetchRecentStopsOnError(t *testing.T) {
	failing := &stubSource{name: "wix", err: errors.New("boom")}
	after := &stubSource{name: "other"}
	m := NewMultiSourceManager([]interfaces.IDataSource{failing, after}, logger.NewLogger(io.Discard, "test", "INFO"))

	_, err := m.FetchRecent(context.Background(), 7)
	assert.EqualError(t, err, "boom")
	assert.Zero(t, after.calls)
}
