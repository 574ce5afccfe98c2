// Package history records harness runs in a SQL database so success rates can
// be compared over time. SQLite, PostgreSQL and MySQL are supported.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shibukawa/declo/testrunner"
)

// Timestamps are stored as fixed width UTC text so they sort the same way on
// every backend.
const timeLayout = "2006-01-02 15:04:05.000000"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS declo_runs (
		id VARCHAR(36) PRIMARY KEY,
		started_at VARCHAR(32) NOT NULL,
		corpus VARCHAR(255) NOT NULL,
		environment VARCHAR(64) NOT NULL,
		total INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS declo_categories (
		run_id VARCHAR(36) NOT NULL,
		category VARCHAR(32) NOT NULL,
		total INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		rate DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, category)
	)`,
	`CREATE TABLE IF NOT EXISTS declo_failures (
		run_id VARCHAR(36) NOT NULL,
		category VARCHAR(32) NOT NULL,
		example_index INTEGER NOT NULL,
		title VARCHAR(255) NOT NULL,
		reason TEXT NOT NULL
	)`,
}

// Run is one stored harness run.
type Run struct {
	ID          string
	StartedAt   time.Time
	Corpus      string
	Environment string
	Total       int
	Failed      int
	Duration    time.Duration
	Categories  []CategoryResult
}

// CategoryResult is the stored aggregate of one category.
type CategoryResult struct {
	Category string
	Total    int
	Passed   int
	Skipped  int
	Rate     float64
}

// Failure is one stored failing example.
type Failure struct {
	Category string
	Index    int
	Title    string
	Reason   string
}

// Store reads and writes runs.
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
	now    func() time.Time
}

// NewStore wraps an open database. driver selects the placeholder style.
func NewStore(db *sql.DB, driver string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{db: db, driver: driver, logger: logger, now: time.Now}
}

// Open connects with NewConnector and wraps the result in a Store.
func Open(driver, connection string, logger *zap.Logger) (*Store, error) {
	db, driver, err := NewConnector().Open(driver, connection)
	if err != nil {
		return nil, err
	}

	return NewStore(db, driver, logger), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the history tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	return nil
}

// SaveReport stores a report and returns the new run id.
func (s *Store) SaveReport(ctx context.Context, report *testrunner.Report, corpusName, environment string) (string, error) {
	id := uuid.NewString()
	startedAt := s.now().UTC().Add(-report.Duration)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO declo_runs (id, started_at, corpus, environment, total, failed, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, startedAt.Format(timeLayout), corpusName, environment, report.Total, report.FailedExamples(), report.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	for _, summary := range report.Categories {
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO declo_categories (run_id, category, total, passed, skipped, rate) VALUES (?, ?, ?, ?, ?, ?)`),
			id, string(summary.Category), summary.Total, summary.Passed, summary.Skipped, summary.Rate)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}

		for _, failing := range summary.Failing {
			_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO declo_failures (run_id, category, example_index, title, reason) VALUES (?, ?, ?, ?, ?)`),
				id, string(summary.Category), failing.Index, failing.Title, failing.Reason)
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.logger.Debug("run saved", zap.String("id", id), zap.String("corpus", corpusName))

	return id, nil
}

// ListRuns returns the latest runs first. A limit of zero or less means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, corpus, environment, total, failed, duration_ms FROM declo_runs ORDER BY started_at DESC, id`

	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run        Run
			startedAt  string
			durationMS int64
		)

		if err := rows.Scan(&run.ID, &startedAt, &run.Corpus, &run.Environment, &run.Total, &run.Failed, &durationMS); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}

		run.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: run %s: %w", ErrQueryFailed, run.ID, err)
		}

		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	for i := range runs {
		runs[i].Categories, err = s.categories(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (s *Store) categories(ctx context.Context, runID string) ([]CategoryResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT category, total, passed, skipped, rate FROM declo_categories WHERE run_id = ?`), runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var result []CategoryResult

	for rows.Next() {
		var c CategoryResult
		if err := rows.Scan(&c.Category, &c.Total, &c.Passed, &c.Skipped, &c.Rate); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}

		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	sortCategories(result)

	return result, nil
}

// sortCategories puts categories in report order.
func sortCategories(categories []CategoryResult) {
	order := map[string]int{}
	for i, c := range testrunner.Categories {
		order[string(c)] = i
	}

	for i := 1; i < len(categories); i++ {
		for j := i; j > 0 && order[categories[j].Category] < order[categories[j-1].Category]; j-- {
			categories[j], categories[j-1] = categories[j-1], categories[j]
		}
	}
}

// Failures returns the failing examples of one run ordered by category and index.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	var exists int

	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM declo_runs WHERE id = ?`), runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT category, example_index, title, reason FROM declo_failures WHERE run_id = ? ORDER BY category, example_index`), runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var failures []Failure

	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Category, &f.Index, &f.Title, &f.Reason); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}

		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return failures, nil
}

// rebind converts '?' placeholders to '$N' for PostgreSQL. Quoted text is left
// alone.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder

	n := 1
	inSingle := false

	for i := range len(query) {
		ch := query[i]

		switch {
		case ch == '\'':
			inSingle = !inSingle
		case ch == '?' && !inSingle:
			b.WriteString("$" + strconv.Itoa(n))
			n++

			continue
		}

		b.WriteByte(ch)
	}

	return b.String()
}

// IsNotFound reports whether err means the run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
