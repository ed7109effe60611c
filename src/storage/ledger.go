package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
)

// -----------------------------------------------------------------------------

// ledger holds the SQL shared by the sqlite and postgres backends. Queries are
// written with '?' placeholders and passed through bind before execution.
type ledger struct {
	DB            *sql.DB
	Logger        *logger.Logger
	RetentionDays int

	runsTable    string
	uploadsTable string
	bind         func(string) string
}

// bindQuestion keeps '?' placeholders (sqlite).
func bindQuestion(q string) string { return q }

// bindDollar rewrites '?' placeholders to $1, $2, ... (postgres).
func bindDollar(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (l *ledger) createTables(bigint string) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			started_at %s NOT NULL,
			finished_at %s,
			packages INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			manifest_url TEXT NOT NULL DEFAULT ''
		);
	`, l.runsTable, bigint, bigint)
	if _, err := l.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			local_path TEXT NOT NULL,
			repo_path TEXT NOT NULL,
			raw_url TEXT NOT NULL,
			upload_time %s NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
	`, l.uploadsTable, bigint)
	if _, err := l.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create uploads table: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (l *ledger) StartRun(run models.MRunRecord) error {
	query := l.bind(fmt.Sprintf(`
		INSERT INTO %s (run_id, started_at, packages, status, error, manifest_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.runsTable))
	_, err := l.DB.Exec(query, run.RunID, run.StartedAt.UnixMilli(), run.Packages, run.Status, run.Error, run.ManifestURL)
	if err != nil {
		return fmt.Errorf("failed to start run %s: %w", run.RunID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (l *ledger) FinishRun(run models.MRunRecord) error {
	var finished sql.NullInt64
	if run.FinishedAt != nil {
		finished = sql.NullInt64{Int64: run.FinishedAt.UnixMilli(), Valid: true}
	}

	query := l.bind(fmt.Sprintf(`
		UPDATE %s SET finished_at = ?, packages = ?, status = ?, error = ?, manifest_url = ?
		WHERE run_id = ?
	`, l.runsTable))
	res, err := l.DB.Exec(query, finished, run.Packages, run.Status, run.Error, run.ManifestURL, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.RunID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", run.RunID)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (l *ledger) SaveUploads(runID string, records []models.MUploadRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := l.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var offset int
	row := tx.QueryRow(l.bind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE run_id = ?`, l.uploadsTable)), runID)
	if err := row.Scan(&offset); err != nil {
		return err
	}

	stmt, err := tx.Prepare(l.bind(fmt.Sprintf(`
		INSERT INTO %s (run_id, seq, local_path, repo_path, raw_url, upload_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.uploadsTable)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(runID, offset+i, r.LocalPath, r.RepoPath, r.RawURL, r.UploadTime.UnixMilli()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (l *ledger) ListRuns(limit int) ([]models.MRunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.DB.Query(l.bind(fmt.Sprintf(`
		SELECT run_id, started_at, finished_at, packages, status, error, manifest_url
		FROM %s ORDER BY started_at DESC, run_id DESC LIMIT ?
	`, l.runsTable)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []models.MRunRecord{}
	for rows.Next() {
		var (
			run      models.MRunRecord
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&run.RunID, &started, &finished, &run.Packages, &run.Status, &run.Error, &run.ManifestURL); err != nil {
			return nil, err
		}
		run.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			t := time.UnixMilli(finished.Int64)
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// -----------------------------------------------------------------------------

func (l *ledger) ListUploads(runID string) ([]models.MUploadRecord, error) {
	rows, err := l.DB.Query(l.bind(fmt.Sprintf(`
		SELECT local_path, repo_path, raw_url, upload_time
		FROM %s WHERE run_id = ? ORDER BY seq
	`, l.uploadsTable)), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.MUploadRecord{}
	for rows.Next() {
		var (
			r        models.MUploadRecord
			uploaded int64
		)
		if err := rows.Scan(&r.LocalPath, &r.RepoPath, &r.RawURL, &uploaded); err != nil {
			return nil, err
		}
		r.UploadTime = time.UnixMilli(uploaded)
		records = append(records, r)
	}
	return records, rows.Err()
}

// -----------------------------------------------------------------------------

func (l *ledger) LatestSuccessfulUploads() ([]models.MUploadRecord, error) {
	var runID string
	err := l.DB.QueryRow(l.bind(fmt.Sprintf(`
		SELECT run_id FROM %s WHERE status = ? ORDER BY started_at DESC, run_id DESC LIMIT 1
	`, l.runsTable)), models.RunStatusSucceeded).Scan(&runID)
	if err == sql.ErrNoRows {
		return []models.MUploadRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return l.ListUploads(runID)
}

// -----------------------------------------------------------------------------

func (l *ledger) Stats() (models.MRunStats, error) {
	stats := models.MRunStats{RunsByStatus: make(map[string]int)}

	rows, err := l.DB.Query(fmt.Sprintf(`SELECT status, COUNT(*) FROM %s GROUP BY status`, l.runsTable))
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, err
		}
		stats.RunsByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if err := l.DB.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, l.uploadsTable)).Scan(&stats.Uploads); err != nil {
		return stats, err
	}

	var last sql.NullInt64
	if err := l.DB.QueryRow(fmt.Sprintf(`SELECT MAX(started_at) FROM %s`, l.runsTable)).Scan(&last); err != nil {
		return stats, err
	}
	if last.Valid {
		stats.LastRunAt = time.UnixMilli(last.Int64)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------

func (l *ledger) CleanupOldData() error {
	if l.RetentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -l.RetentionDays).UnixMilli()

	l.Logger.Info("Cleaning up runs older than %d days", l.RetentionDays)

	query := l.bind(fmt.Sprintf(`
		DELETE FROM %s WHERE run_id IN (SELECT run_id FROM %s WHERE started_at < ?)
	`, l.uploadsTable, l.runsTable))
	if _, err := l.DB.Exec(query, cutoff); err != nil {
		l.Logger.Error("Cleanup uploads error: %v", err)
	}

	if _, err := l.DB.Exec(l.bind(fmt.Sprintf(`DELETE FROM %s WHERE started_at < ?`, l.runsTable)), cutoff); err != nil {
		l.Logger.Error("Cleanup runs error: %v", err)
	}

	l.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (l *ledger) Close() error {
	if l.DB != nil {
		return l.DB.Close()
	}
	return nil
}
