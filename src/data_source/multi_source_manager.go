package datasource

import (
	"context"

	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
)

// MultiSourceManager queries several analytics sources, one after another, in
// registration order. Sources are fixed at construction; duplicate names keep
// the first source.
type MultiSourceManager struct {
	Sources map[string]interfaces.IDataSource
	Logger  *logger.Logger
	order   []string
}

// SourceSeries is the result of one source.
type SourceSeries struct {
	Name   string
	Series []models.MMeasurementSeries
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IDataSource, log *logger.Logger) *MultiSourceManager {
	m := &MultiSourceManager{
		Sources: make(map[string]interfaces.IDataSource),
		Logger:  log.Named("Sources"),
	}

	for _, s := range sources {
		if _, exists := m.Sources[s.Name()]; exists {
			continue
		}
		m.Sources[s.Name()] = s
		m.order = append(m.order, s.Name())
	}

	return m
}

// -----------------------------------------------------------------------------

// Names lists sources in registration order.
func (m *MultiSourceManager) Names() []string {
	return append([]string(nil), m.order...)
}

// -----------------------------------------------------------------------------

// FetchRecent fetches the last daysBack days from every source. The first
// failure stops the loop and is returned unchanged.
func (m *MultiSourceManager) FetchRecent(ctx context.Context, daysBack int) ([]SourceSeries, error) {
	results := make([]SourceSeries, 0, len(m.order))
	for _, name := range m.order {
		series, err := m.Sources[name].FetchRecent(ctx, daysBack)
		if err != nil {
			m.Logger.Error("Source %s failed: %v", name, err)
			return nil, err
		}
		m.Logger.Info("Fetched %d series from %s", len(series), name)
		results = append(results, SourceSeries{Name: name, Series: series})
	}
	return results, nil
}
