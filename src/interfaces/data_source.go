package interfaces

import (
	"context"

	"traffic-publisher/src/models"

	"cloud.google.com/go/civil"
)

// -----------------------------------------------------------------------------
// IDataSource interface for fetching measurements from a vendor analytics API.
// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchRange retrieves raw measurements for [start, end]. Empty types means the default set.
	FetchRange(ctx context.Context, start, end civil.Date, types []string) ([]models.MMeasurementSeries, error)

	// -----------------------------------------------------------------------------

	// FetchRecent retrieves raw measurements for [today - daysBack, today].
	FetchRecent(ctx context.Context, daysBack int) ([]models.MMeasurementSeries, error)

	// -----------------------------------------------------------------------------

	// SummarizeRecent fetches the last daysBack days and aggregates them.
	SummarizeRecent(ctx context.Context, daysBack int) (models.MTrafficSummary, error)
}
