package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Measurement type tags requested from the analytics API when none are configured.
const (
	MeasurementSessions = "sessions"
	MeasurementSales    = "sales"
	MeasurementOrders   = "orders"
	MeasurementContacts = "contacts"
)

// Data source labels carried by MTrafficSummary.
const (
	SourceEmailAttachment = "email_attachment"
	SourceAnalyticsAPI    = "wix_analytics_api"
)

// DefaultMeasurementTypes returns a fresh copy of the default measurement set.
func DefaultMeasurementTypes() []string {
	return []string{MeasurementSessions, MeasurementSales, MeasurementOrders, MeasurementContacts}
}

// MMeasurementSample is one dated value of a measurement.
type MMeasurementSample struct {
	Date  civil.Date `json:"date"`
	Value float64    `json:"value"`
}

// MMeasurementSeries is the chronologically ordered samples of one measurement type.
type MMeasurementSeries struct {
	Type    string               `json:"type"`
	Samples []MMeasurementSample `json:"values"`
}

// MDateRange is nil-valued on both ends when the aggregate has no data points.
type MDateRange struct {
	Start *civil.Date `json:"start"`
	End   *civil.Date `json:"end"`
}

// MMetricAggregate represents the aggregated values of one measurement type.
type MMetricAggregate struct {
	Total        float64    `json:"total"`
	DailyAverage float64    `json:"daily_average"`
	DataPoints   int        `json:"data_points"`
	DateRange    MDateRange `json:"date_range"`
}

// MTrafficSummary is the per-measurement aggregate of one report or API fetch.
type MTrafficSummary struct {
	CollectionDate time.Time                   `json:"collection_date"`
	PeriodDays     int                         `json:"period_days"`
	DataSource     string                      `json:"data_source"`
	Metrics        map[string]MMetricAggregate `json:"metrics"`
}

// MDataset is a decoded tabular report: a header row and string cells.
type MDataset struct {
	Header []string
	Rows   [][]string
}
