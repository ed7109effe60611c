package extractor

import (
	"fmt"
	"sort"
	"time"

	"traffic-publisher/src/analysis/core"
	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
)

// Extractor turns report attachments into measurement series and summaries.
type Extractor struct {
	Logger *logger.Logger
	// Expected measurement types always present in a summary, zeroed when absent.
	Expected []string
}

// -----------------------------------------------------------------------------

func NewExtractor(log *logger.Logger, expected []string) *Extractor {
	return &Extractor{
		Logger:   log.Named("Extractor"),
		Expected: expected,
	}
}

// -----------------------------------------------------------------------------

// Extract decodes an attachment into a tabular dataset.
func (e *Extractor) Extract(filename string, data []byte) (models.MDataset, error) {
	ds, err := Decode(filename, data)
	if err != nil {
		return models.MDataset{}, err
	}
	e.Logger.Debug("Decoded %s: %d columns, %d rows", filename, len(ds.Header), len(ds.Rows))
	return ds, nil
}

// -----------------------------------------------------------------------------

// Summarize aggregates a dataset per measurement type.
func (e *Extractor) Summarize(ds models.MDataset, collectedAt time.Time) (models.MTrafficSummary, error) {
	series, err := e.Series(ds)
	if err != nil {
		return models.MTrafficSummary{}, err
	}
	return core.Summarize(series, e.Expected, core.SpanDays(series), models.SourceEmailAttachment, collectedAt), nil
}

// -----------------------------------------------------------------------------

// Series groups dataset rows by measurement type. Two layouts are accepted:
//
//	long: type,date,value   (one row per type and day)
//	wide: date,sessions,... (one column per type)
//
// Rows with an unparseable date or value are skipped.
func (e *Extractor) Series(ds models.MDataset) ([]models.MMeasurementSeries, error) {
	dateCol := findColumn(ds.Header, dateAliases)
	if dateCol < 0 {
		return nil, helpers.NewExtractionError(fmt.Sprintf("no date column in header %v", ds.Header), nil)
	}

	typeCol := findColumn(ds.Header, typeAliases)
	valueCol := findColumn(ds.Header, valueAliases)

	var (
		byType  map[string][]models.MMeasurementSample
		skipped int
	)
	if typeCol >= 0 && valueCol >= 0 {
		byType, skipped = longSeries(ds, typeCol, dateCol, valueCol)
	} else {
		byType, skipped = wideSeries(ds, dateCol)
	}

	if skipped > 0 {
		e.Logger.Warning("Skipped %d unparseable cells", skipped)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	series := make([]models.MMeasurementSeries, 0, len(types))
	for _, t := range types {
		samples := byType[t]
		core.SortSamples(samples)
		series = append(series, models.MMeasurementSeries{Type: t, Samples: samples})
	}
	return series, nil
}

// -----------------------------------------------------------------------------

func longSeries(ds models.MDataset, typeCol, dateCol, valueCol int) (map[string][]models.MMeasurementSample, int) {
	byType := make(map[string][]models.MMeasurementSample)
	skipped := 0

	for _, row := range ds.Rows {
		t := normalizeHeader(cell(row, typeCol))
		d, okDate := parseDate(cell(row, dateCol))
		v, okValue := parseNumber(cell(row, valueCol))
		if t == "" || !okDate || !okValue {
			skipped++
			continue
		}
		byType[t] = append(byType[t], models.MMeasurementSample{Date: d, Value: v})
	}
	return byType, skipped
}

// -----------------------------------------------------------------------------

func wideSeries(ds models.MDataset, dateCol int) (map[string][]models.MMeasurementSample, int) {
	byType := make(map[string][]models.MMeasurementSample)
	skipped := 0

	for _, row := range ds.Rows {
		d, ok := parseDate(cell(row, dateCol))
		if !ok {
			skipped++
			continue
		}
		for i, h := range ds.Header {
			if i == dateCol || h == "" {
				continue
			}
			raw := cell(row, i)
			if raw == "" {
				continue
			}
			v, ok := parseNumber(raw)
			if !ok {
				skipped++
				continue
			}
			t := normalizeHeader(h)
			byType[t] = append(byType[t], models.MMeasurementSample{Date: d, Value: v})
		}
	}
	return byType, skipped
}

// -----------------------------------------------------------------------------

// Records converts dataset rows into header-keyed records for the raw_data
// section of a data package. Numeric cells become float64.
func Records(ds models.MDataset) []map[string]any {
	dateCol := findColumn(ds.Header, dateAliases)

	records := make([]map[string]any, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		rec := make(map[string]any, len(ds.Header))
		for i, h := range ds.Header {
			if h == "" {
				h = fmt.Sprintf("column_%d", i+1)
			}
			raw := cell(row, i)
			if raw == "" {
				rec[h] = nil
				continue
			}
			if v, ok := parseNumber(raw); ok && i != dateCol {
				rec[h] = v
				continue
			}
			rec[h] = raw
		}
		records = append(records, rec)
	}
	return records
}
