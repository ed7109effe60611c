package analysis

import (
	"time"

	"traffic-publisher/src/analysis/core"
	"traffic-publisher/src/extractor"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
)

// AnalysisFacade turns attachments and fetched series into data packages.
type AnalysisFacade struct {
	Extractor *extractor.Extractor
	Resampler *DailyResampler
	Expected  []string
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(expected []string, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Extractor: extractor.NewExtractor(log, expected),
		Resampler: &DailyResampler{},
		Expected:  expected,
		Logger:    log.Named("Analysis"),
	}
}

// -----------------------------------------------------------------------------

// PackageAttachment decodes and summarizes one attachment. Any failure is an
// ExtractionError so the caller can skip the attachment.
func (a *AnalysisFacade) PackageAttachment(att models.MAttachment) (models.MDataPackage, error) {
	// 1. Decode the table
	ds, err := a.Extractor.Extract(att.Filename, att.Data)
	if err != nil {
		return models.MDataPackage{}, err
	}

	// 2. Aggregate per measurement type
	summary, err := a.Extractor.Summarize(ds, att.ProcessedDate)
	if err != nil {
		return models.MDataPackage{}, err
	}

	// 3. Assemble
	pkg := models.MDataPackage{
		SourceEmail: models.MSourceEmail{
			Subject: att.EmailSubject,
			Date:    att.EmailDate,
		},
		ProcessingInfo: models.MProcessingInfo{
			ProcessedDate: att.ProcessedDate,
			Filename:      att.Filename,
		},
		TrafficData: summary,
		RawData:     extractor.Records(ds),
	}

	a.Logger.Info("Packaged %s: %d rows, %d metrics", att.Filename, len(ds.Rows), len(summary.Metrics))
	return pkg, nil
}

// -----------------------------------------------------------------------------

// PackageSeries builds the package for series fetched from the analytics API.
// The subject names the source so API packages are told apart from mail ones.
func (a *AnalysisFacade) PackageSeries(series []models.MMeasurementSeries, periodDays int, collectedAt time.Time) models.MDataPackage {
	for i := range series {
		core.SortSamples(series[i].Samples)
	}

	summary := core.Summarize(series, a.Expected, periodDays, models.SourceAnalyticsAPI, collectedAt)

	return models.MDataPackage{
		SourceEmail: models.MSourceEmail{
			Subject: models.SourceAnalyticsAPI,
			Date:    collectedAt,
		},
		ProcessingInfo: models.MProcessingInfo{
			ProcessedDate: collectedAt,
			Filename:      models.SourceAnalyticsAPI,
		},
		TrafficData: summary,
		RawData:     a.Resampler.PivotDaily(series),
	}
}
