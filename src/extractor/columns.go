package extractor

import (
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

var (
	typeAliases  = []string{"type", "measurement", "measurement_type", "metric"}
	dateAliases  = []string{"date", "day", "report_date"}
	valueAliases = []string{"value", "count", "total", "amount"}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// -----------------------------------------------------------------------------

// normalizeHeader lower-cases a header and joins words with underscores.
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), "_")
}

// findColumn returns the index of the first header matching one of aliases, or -1.
func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		n := normalizeHeader(h)
		for _, a := range aliases {
			if n == a {
				return i
			}
		}
	}
	return -1
}

// -----------------------------------------------------------------------------

// parseDate accepts the layouts report exports commonly use, plus Excel serial numbers.
func parseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 1 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// -----------------------------------------------------------------------------

// parseNumber strips thousands separators, currency and percent signs.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "%", "", " ", "").Replace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// cell returns row[i] or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
