package server

import (
	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "traffic_publisher"

// LedgerCollector reads the run ledger on every scrape, so metrics stay
// correct across process restarts and runs made by other processes.
type LedgerCollector struct {
	db     interfaces.IDatabase
	logger *logger.Logger

	runsTotal    *prometheus.Desc
	uploadsTotal *prometheus.Desc
	lastRun      *prometheus.Desc
	scrapeErrors prometheus.Counter
}

func NewLedgerCollector(db interfaces.IDatabase, log *logger.Logger) *LedgerCollector {
	return &LedgerCollector{
		db:     db,
		logger: log,
		runsTotal: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "runs_total"),
			"Pipeline runs recorded in the ledger, by final status.",
			[]string{"status"}, nil),
		uploadsTotal: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "uploads_total"),
			"Files published to the repository.",
			nil, nil),
		lastRun: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "last_run_timestamp_seconds"),
			"Start time of the most recent run.",
			nil, nil),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ledger_scrape_errors_total",
			Help:      "Failed reads of the run ledger during scrapes.",
		}),
	}
}

func (c *LedgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runsTotal
	ch <- c.uploadsTotal
	ch <- c.lastRun
	c.scrapeErrors.Describe(ch)
}

func (c *LedgerCollector) Collect(ch chan<- prometheus.Metric) {
	defer c.scrapeErrors.Collect(ch)

	stats, err := c.db.Stats()
	if err != nil {
		c.scrapeErrors.Inc()
		c.logger.Error("Failed to read ledger stats: %v", err)
		return
	}

	for status, n := range stats.RunsByStatus {
		ch <- prometheus.MustNewConstMetric(c.runsTotal, prometheus.CounterValue, float64(n), status)
	}
	ch <- prometheus.MustNewConstMetric(c.uploadsTotal, prometheus.CounterValue, float64(stats.Uploads))

	var last float64
	if !stats.LastRunAt.IsZero() {
		last = float64(stats.LastRunAt.Unix())
	}
	ch <- prometheus.MustNewConstMetric(c.lastRun, prometheus.GaugeValue, last)
}
