package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Narrowing the type here
// lets tests substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_invoice":        `INSERT INTO invoices (id, filename, status, uploaded_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_invoice_status": `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3`,
	"update_invoice_result": `UPDATE invoices SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_invoice":           `SELECT id, filename, status, result, uploaded_at, updated_at FROM invoices WHERE id = $1`,
	"delete_invoice":        `DELETE FROM invoices WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS invoices (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	filename    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'processing',
	result      JSONB,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
CREATE INDEX IF NOT EXISTS idx_invoices_uploaded_at ON invoices(uploaded_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) CreateInvoice(ctx context.Context, filename string) (*model.Invoice, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO invoices (id, filename, status, uploaded_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, filename, string(model.StatusProcessing), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert invoice")
	}

	return &model.Invoice{
		ID:         id,
		Filename:   filename,
		Status:     model.StatusProcessing,
		UploadedAt: now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) UpdateInvoiceStatus(ctx context.Context, id string, status model.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update invoice status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("invoice not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateInvoiceResult(ctx context.Context, id string, result *model.ExtractionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(result.Status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update invoice result %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("invoice not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	var inv model.Invoice
	var resultNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, status, result, uploaded_at, updated_at FROM invoices WHERE id = $1`,
		id,
	).Scan(&inv.ID, &inv.Filename, &inv.Status, &resultNull, &inv.UploadedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get invoice %s", id)
	}

	if resultNull != nil {
		inv.Result = &model.ExtractionResult{}
		if err := json.Unmarshal(*resultNull, inv.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &inv, nil
}

func (s *PostgresStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error) {
	query := `SELECT id, filename, status, result, uploaded_at, updated_at FROM invoices WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY uploaded_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list invoices")
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		var resultNull *[]byte

		if err := rows.Scan(&inv.ID, &inv.Filename, &inv.Status, &resultNull, &inv.UploadedAt, &inv.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan invoice")
		}
		if resultNull != nil {
			inv.Result = &model.ExtractionResult{}
			if err := json.Unmarshal(*resultNull, inv.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		invoices = append(invoices, inv)
	}
	return invoices, eris.Wrap(rows.Err(), "postgres: list invoices iterate")
}

func (s *PostgresStore) DeleteInvoice(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete invoice %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("invoice not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteAllInvoices(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete all invoices")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) MarkStaleProcessing(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	failedResult, err := json.Marshal(&model.ExtractionResult{
		Status:           model.StatusFailed,
		ConfidenceScores: map[string]float64{},
		ErrorMessage:     staleFailureMessage,
	})
	if err != nil {
		return 0, eris.Wrap(err, "postgres: marshal stale result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET status = $1, result = $2, updated_at = $3
		 WHERE status = $4 AND updated_at < $5`,
		string(model.StatusFailed), failedResult, time.Now().UTC(),
		string(model.StatusProcessing), cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: mark stale processing")
	}
	return int(tag.RowsAffected()), nil
}
