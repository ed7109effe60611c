package extractor

import (
	"io"
	"testing"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestExtractor(expected ...string) *Extractor {
	return NewExtractor(logger.NewLogger(io.Discard, "test", "DEBUG"), expected)
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestExtractLongCSVAndSummarize(t *testing.T) {
	e := newTestExtractor("sessions", "sales")
	csvData := []byte("type,date,value\nsessions,2024-01-02,20\nsessions,2024-01-01,10\n")

	ds, err := e.Extract("report.csv", csvData)
	require.NoError(t, err)
	assert.Equal(t, []string{"type", "date", "value"}, ds.Header)
	assert.Len(t, ds.Rows, 2)

	collected := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	summary, err := e.Summarize(ds, collected)
	require.NoError(t, err)

	sessions := summary.Metrics["sessions"]
	assert.Equal(t, 30.0, sessions.Total)
	assert.Equal(t, 15.0, sessions.DailyAverage)
	assert.Equal(t, 2, sessions.DataPoints)
	require.NotNil(t, sessions.DateRange.Start)
	assert.Equal(t, date("2024-01-01"), *sessions.DateRange.Start)
	assert.Equal(t, date("2024-01-02"), *sessions.DateRange.End)

	sales := summary.Metrics["sales"]
	assert.Zero(t, sales.DataPoints)
	assert.Zero(t, sales.DailyAverage)
	assert.Nil(t, sales.DateRange.Start)
	assert.Nil(t, sales.DateRange.End)

	assert.Equal(t, 2, summary.PeriodDays)
	assert.Equal(t, collected, summary.CollectionDate)
}

func TestExtractWideSemicolonCSV(t *testing.T) {
	e := newTestExtractor()
	data := []byte("\xef\xbb\xbfDate;Sessions;Orders;Notes\n01/03/2024;1,200;3;ok\n01/04/2024;800;;\n\n")

	ds, err := e.Extract("traffic.csv", data)
	require.NoError(t, err)

	series, err := e.Series(ds)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "orders", series[0].Type)
	assert.Len(t, series[0].Samples, 1)
	assert.Equal(t, "sessions", series[1].Type)
	require.Len(t, series[1].Samples, 2)
	assert.Equal(t, 1200.0, series[1].Samples[0].Value)
	assert.Equal(t, date("2024-01-03"), series[1].Samples[0].Date)
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Measurement", "Day", "Count"},
		{"contacts", "2024-02-01", 4},
		{"contacts", "2024-02-02", 6},
		{"orders", "2024-02-01", 1},
	}
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	e := newTestExtractor()
	ds, err := e.Extract("Wix Report.xlsx", buf.Bytes())
	require.NoError(t, err)

	summary, err := e.Summarize(ds, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10.0, summary.Metrics["contacts"].Total)
	assert.Equal(t, 5.0, summary.Metrics["contacts"].DailyAverage)
	assert.Equal(t, 1.0, summary.Metrics["orders"].Total)
}

func TestExtractSniffsXLSXWithoutExtension(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"date", "sessions"}))
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A2", &[]interface{}{"2024-05-01", 7}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := newTestExtractor().Extract("attachment", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "sessions"}, ds.Header)
}

func TestExtractFailures(t *testing.T) {
	e := newTestExtractor()
	cases := map[string]struct {
		name string
		data []byte
	}{
		"empty":           {"report.csv", []byte("  \n")},
		"legacy xls":      {"report.xls", []byte{0xd0, 0xcf, 0x11, 0xe0}},
		"corrupt xlsx":    {"report.xlsx", []byte("PK\x03\x04 not really a zip")},
		"binary unknown":  {"report.bin", []byte{0xff, 0xfe, 0x00, 0x81}},
		"blank rows only": {"report.csv", []byte(",,\n,,\n")},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract(tc.name, tc.data)
			require.Error(t, err)
			assert.True(t, helpers.IsExtractionError(err))
		})
	}
}

func TestSeriesRequiresDateColumn(t *testing.T) {
	e := newTestExtractor()
	ds, err := e.Extract("report.csv", []byte("page,views\n/home,3\n"))
	require.NoError(t, err)

	_, err = e.Series(ds)
	require.Error(t, err)
	assert.True(t, helpers.IsExtractionError(err))
}

func TestSeriesSkipsBadRows(t *testing.T) {
	e := newTestExtractor()
	ds, err := e.Extract("report.csv", []byte("type,date,value\nsessions,not-a-date,1\nsessions,2024-01-01,n/a\nsessions,2024-01-01,5\n"))
	require.NoError(t, err)

	series, err := e.Series(ds)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Len(t, series[0].Samples, 1)
}

func TestRecords(t *testing.T) {
	ds, err := Decode("r.csv", []byte("type,date,value,\nsessions,2024-01-01,10,\n"))
	require.NoError(t, err)

	recs := Records(ds)
	require.Len(t, recs, 1)
	assert.Equal(t, "sessions", recs[0]["type"])
	assert.Equal(t, "2024-01-01", recs[0]["date"])
	assert.Equal(t, 10.0, recs[0]["value"])
	assert.Nil(t, recs[0]["column_4"])
}

func TestParseDateFormats(t *testing.T) {
	want := date("2024-01-31")
	for _, in := range []string{"2024-01-31", "2024/01/31", "01/31/2024", "1/31/2024", "Jan 31, 2024", "45322"} {
		got, ok := parseDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseDate("yesterday")
	assert.False(t, ok)
}
