package utils

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------

// Timestamp layouts used in artifact and remote file names.
const (
	FileTimestampLayout = "20060102_150405"
	FileDateLayout      = "20060102"
)

// Local and remote artifact locations.
const (
	ProcessedDir  = "processed"
	ReportPrefix  = "wix_traffic_report"
	RemoteDataDir = "traffic_data"
	RemoteReport  = "wix_report"
	RemoteURLDir  = "url_lists"
)

// -----------------------------------------------------------------------------

// FileTimestamp formats t for use in file names.
func FileTimestamp(t time.Time) string {
	return t.Format(FileTimestampLayout)
}

// -----------------------------------------------------------------------------

// LocalReportName is "wix_traffic_report_<YYYYMMDD_HHMMSS>.json".
func LocalReportName(t time.Time) string {
	return fmt.Sprintf("%s_%s.json", ReportPrefix, FileTimestamp(t))
}

// RemoteReportPath is "traffic_data/wix_report_<YYYYMMDD_HHMMSS>.json".
func RemoteReportPath(t time.Time) string {
	return fmt.Sprintf("%s/%s_%s.json", RemoteDataDir, RemoteReport, FileTimestamp(t))
}

// RemoteURLListPath is "url_lists/urls_<YYYYMMDD>.txt".
func RemoteURLListPath(t time.Time) string {
	return fmt.Sprintf("%s/urls_%s.txt", RemoteURLDir, t.Format(FileDateLayout))
}
