package interfaces

import "traffic-publisher/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract of the run ledger.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the connection and creates missing tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// StartRun records a new run in the running state.
	StartRun(run models.MRunRecord) error

	// -----------------------------------------------------------------------------

	// FinishRun stores the final status, counts and error of a run.
	FinishRun(run models.MRunRecord) error

	// -----------------------------------------------------------------------------

	// SaveUploads appends the upload records of a run, keeping their order.
	SaveUploads(runID string, records []models.MUploadRecord) error

	// -----------------------------------------------------------------------------

	// ListRuns returns the most recent runs first.
	ListRuns(limit int) ([]models.MRunRecord, error)

	// -----------------------------------------------------------------------------

	// ListUploads returns the uploads of one run in publish order.
	ListUploads(runID string) ([]models.MUploadRecord, error)

	// -----------------------------------------------------------------------------

	// LatestSuccessfulUploads returns the uploads of the newest succeeded run.
	LatestSuccessfulUploads() ([]models.MUploadRecord, error)

	// -----------------------------------------------------------------------------

	// Stats aggregates the ledger for metrics.
	Stats() (models.MRunStats, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes runs older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
