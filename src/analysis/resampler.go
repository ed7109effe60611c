package analysis

import (
	"sort"

	"traffic-publisher/src/models"

	"cloud.google.com/go/civil"
)

// DailyResampler buckets measurement samples by calendar day.
type DailyResampler struct{}

// DayBucket holds the summed value of every measurement type on one day.
type DayBucket struct {
	Date   civil.Date
	Values map[string]float64
}

// -----------------------------------------------------------------------------

// ResampleDaily groups samples of all series by day, summing values that share
// a type and day. Buckets are returned in chronological order.
func (r *DailyResampler) ResampleDaily(series []models.MMeasurementSeries) []DayBucket {
	byDay := make(map[civil.Date]map[string]float64)

	for _, s := range series {
		for _, sample := range s.Samples {
			values, ok := byDay[sample.Date]
			if !ok {
				values = make(map[string]float64)
				byDay[sample.Date] = values
			}
			values[s.Type] += sample.Value
		}
	}

	buckets := make([]DayBucket, 0, len(byDay))
	for d, values := range byDay {
		buckets = append(buckets, DayBucket{Date: d, Values: values})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date.Before(buckets[j].Date)
	})
	return buckets
}

// -----------------------------------------------------------------------------

// PivotDaily renders series as wide row records, one per day:
// {"date": "2024-03-01", "sessions": 10, "sales": nil}. Every type present in
// any series appears in every row; days without a value carry nil.
func (r *DailyResampler) PivotDaily(series []models.MMeasurementSeries) []map[string]any {
	types := make([]string, 0, len(series))
	seen := make(map[string]bool)
	for _, s := range series {
		if !seen[s.Type] {
			seen[s.Type] = true
			types = append(types, s.Type)
		}
	}

	buckets := r.ResampleDaily(series)
	records := make([]map[string]any, 0, len(buckets))
	for _, b := range buckets {
		rec := make(map[string]any, len(types)+1)
		rec["date"] = b.Date.String()
		for _, t := range types {
			if v, ok := b.Values[t]; ok {
				rec[t] = v
			} else {
				rec[t] = nil
			}
		}
		records = append(records, rec)
	}
	return records
}
