package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// staleFailureMessage is recorded on invoices failed by the stale sweep.
const staleFailureMessage = "Processing timed out"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS invoices (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'processing',
	result      TEXT,
	uploaded_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
CREATE INDEX IF NOT EXISTS idx_invoices_uploaded_at ON invoices(uploaded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateInvoice(ctx context.Context, filename string) (*model.Invoice, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invoices (id, filename, status, uploaded_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, filename, string(model.StatusProcessing), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert invoice")
	}

	return &model.Invoice{
		ID:         id,
		Filename:   filename,
		Status:     model.StatusProcessing,
		UploadedAt: now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) UpdateInvoiceStatus(ctx context.Context, id string, status model.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update invoice status %s", id)
	}
	return checkRowsAffected(res, "invoice", id)
}

func (s *SQLiteStore) UpdateInvoiceResult(ctx context.Context, id string, result *model.ExtractionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(result.Status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update invoice result %s", id)
	}
	return checkRowsAffected(res, "invoice", id)
}

func (s *SQLiteStore) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, result, uploaded_at, updated_at FROM invoices WHERE id = ?`,
		id,
	)
	return scanInvoice(row)
}

func (s *SQLiteStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error) {
	query := `SELECT id, filename, status, result, uploaded_at, updated_at FROM invoices WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY uploaded_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list invoices")
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, eris.Wrap(rows.Err(), "sqlite: list invoices iterate")
}

func (s *SQLiteStore) DeleteInvoice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete invoice %s", id)
	}
	return checkRowsAffected(res, "invoice", id)
}

func (s *SQLiteStore) DeleteAllInvoices(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete all invoices")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) MarkStaleProcessing(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	failedResult, err := json.Marshal(&model.ExtractionResult{
		Status:           model.StatusFailed,
		ConfidenceScores: map[string]float64{},
		ErrorMessage:     staleFailureMessage,
	})
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: marshal stale result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, result = ?, updated_at = ?
		 WHERE status = ? AND updated_at < ?`,
		string(model.StatusFailed), string(failedResult), time.Now().UTC(),
		string(model.StatusProcessing), cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: mark stale processing")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanInvoice(row scannable) (*model.Invoice, error) {
	var inv model.Invoice
	var resultJSON sql.NullString

	err := row.Scan(&inv.ID, &inv.Filename, &inv.Status, &resultJSON, &inv.UploadedAt, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("invoice not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan invoice")
	}

	if resultJSON.Valid {
		inv.Result = &model.ExtractionResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), inv.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &inv, nil
}
