package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/models"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// -----------------------------------------------------------------------------

// Decode turns raw attachment bytes into a dataset. The format comes from the
// filename extension, falling back to content sniffing.
func Decode(filename string, data []byte) (models.MDataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("attachment %s is empty", filename), nil)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return decodeXLSX(filename, data)
	case ".csv", ".tsv", ".txt":
		return decodeCSV(filename, data)
	case ".xls":
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("attachment %s uses the legacy .xls format", filename), nil)
	}

	if bytes.HasPrefix(data, zipMagic) {
		return decodeXLSX(filename, data)
	}
	if utf8.Valid(data) {
		return decodeCSV(filename, data)
	}
	return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("attachment %s has an unsupported format", filename), nil)
}

// -----------------------------------------------------------------------------

func decodeXLSX(filename string, data []byte) (models.MDataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("failed to open workbook %s", filename), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("workbook %s has no sheets", filename), nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("failed to read sheet %s of %s", sheets[0], filename), err)
	}
	return buildDataset(filename, rows)
}

// -----------------------------------------------------------------------------

func decodeCSV(filename string, data []byte) (models.MDataset, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("failed to parse CSV %s", filename), err)
	}
	return buildDataset(filename, rows)
}

// -----------------------------------------------------------------------------

// sniffDelimiter picks the most frequent of ',', ';' and tab in the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if c := bytes.Count(line, []byte(string(d))); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// -----------------------------------------------------------------------------

// buildDataset takes the first non-blank row as header and drops blank rows.
func buildDataset(filename string, rows [][]string) (models.MDataset, error) {
	var ds models.MDataset

	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if ds.Header == nil {
			ds.Header = make([]string, len(row))
			for i, h := range row {
				ds.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}

	if ds.Header == nil {
		return models.MDataset{}, helpers.NewExtractionError(fmt.Sprintf("attachment %s has no header row", filename), nil)
	}
	return ds, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
