package core

import (
	"sort"
	"time"

	"traffic-publisher/src/models"

	"cloud.google.com/go/civil"
)

// -----------------------------------------------------------------------------

// SortSamples orders samples chronologically in place. Samples sharing a date
// keep their input order.
func SortSamples(samples []models.MMeasurementSample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})
}

// -----------------------------------------------------------------------------

// AggregateSamples computes the aggregate of one chronologically ordered series.
// The date range is taken from the first and last samples.
func AggregateSamples(samples []models.MMeasurementSample) models.MMetricAggregate {
	if len(samples) == 0 {
		return models.MMetricAggregate{}
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	total, avg := CalculateTotalMean(values)

	start := samples[0].Date
	end := samples[len(samples)-1].Date

	return models.MMetricAggregate{
		Total:        total,
		DailyAverage: avg,
		DataPoints:   len(samples),
		DateRange: models.MDateRange{
			Start: &start,
			End:   &end,
		},
	}
}

// -----------------------------------------------------------------------------

// Summarize builds a traffic summary from measurement series. Every type listed
// in expected gets an entry, zeroed when no series carries data for it.
// Series sharing a type are merged and sorted chronologically before aggregation.
func Summarize(
	series []models.MMeasurementSeries,
	expected []string,
	periodDays int,
	source string,
	collectedAt time.Time,
) models.MTrafficSummary {

	byType := make(map[string][]models.MMeasurementSample)
	for _, s := range series {
		byType[s.Type] = append(byType[s.Type], s.Samples...)
	}
	for _, t := range expected {
		if _, ok := byType[t]; !ok {
			byType[t] = nil
		}
	}

	metrics := make(map[string]models.MMetricAggregate, len(byType))
	for t, samples := range byType {
		SortSamples(samples)
		metrics[t] = AggregateSamples(samples)
	}

	return models.MTrafficSummary{
		CollectionDate: collectedAt,
		PeriodDays:     periodDays,
		DataSource:     source,
		Metrics:        metrics,
	}
}

// -----------------------------------------------------------------------------

// SpanDays is the inclusive number of calendar days covered by all series, or 0
// when there are no samples.
func SpanDays(series []models.MMeasurementSeries) int {
	var first, last civil.Date
	seen := false

	for _, s := range series {
		for _, sample := range s.Samples {
			if !seen {
				first, last = sample.Date, sample.Date
				seen = true
				continue
			}
			if sample.Date.Before(first) {
				first = sample.Date
			}
			if sample.Date.After(last) {
				last = sample.Date
			}
		}
	}

	if !seen {
		return 0
	}
	return last.DaysSince(first) + 1
}
