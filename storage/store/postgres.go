package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS tx_journal (
	request_id    TEXT PRIMARY KEY,
	handle        TEXT NOT NULL,
	kind          TEXT NOT NULL,
	report_id     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	final_tx_id   TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	attempts      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tx_journal_handle_idx ON tx_journal (handle);
`

const recordColumns = `request_id, handle, kind, report_id, status, final_tx_id, error_message, attempts, created_at, updated_at`

// PostgresStore is the pgx-backed journal
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// PoolConfig builds the pgxpool configuration for dsn
func PoolConfig(dsn string, maxConns, minConns int, maxIdleTime, maxLifetime time.Duration) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	if minConns > 0 {
		cfg.MinConns = int32(minConns)
	}
	if maxIdleTime > 0 {
		cfg.MaxConnIdleTime = maxIdleTime
	}
	if maxLifetime > 0 {
		cfg.MaxConnLifetime = maxLifetime
	}
	return cfg, nil
}

// NewPostgresStore connects, pings and makes sure the journal table exists
func NewPostgresStore(ctx context.Context, dsn string, maxConns, minConns int, logger *log.Logger) (*PostgresStore, error) {
	cfg, err := PoolConfig(dsn, maxConns, minConns, 0, 0)
	if err != nil {
		return nil, err
	}
	return connect(ctx, cfg, logger)
}

func connect(ctx context.Context, cfg *pgxpool.Config, logger *log.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure journal schema: %w", err)
	}

	logger.Printf("Connected to PostgreSQL (max_conns=%d, min_conns=%d)", cfg.MaxConns, cfg.MinConns)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) InsertTransactionBatch(ctx context.Context, records []*TxRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		status := r.Status
		if status == "" {
			status = StatusPending
		}
		batch.Queue(`INSERT INTO tx_journal (request_id, handle, kind, report_id, status)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (request_id) DO NOTHING`,
			r.RequestID, r.Handle, r.Kind, r.ReportID, string(status))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert of record %s failed: %w", records[i].RequestID, err)
		}
	}
	return nil
}

func (s *PostgresStore) MarkTracking(ctx context.Context, requestID string) (*TxRecord, error) {
	row := s.pool.QueryRow(ctx, `UPDATE tx_journal
		SET status = $2, attempts = attempts + 1, updated_at = now()
		WHERE request_id = $1 AND status IN ($3, $2)
		RETURNING `+recordColumns,
		requestID, string(StatusTracking), string(StatusPending))
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either unknown or already terminal.
		return s.GetByRequestID(ctx, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim record %s: %w", requestID, err)
	}
	return rec, nil
}

func (s *PostgresStore) MarkAccepted(ctx context.Context, rec CompletionRecord) error {
	return s.exec(ctx, rec.RequestID, `UPDATE tx_journal
		SET status = $2, final_tx_id = $3, report_id = CASE WHEN $4 = '' THEN report_id ELSE $4 END,
		    error_message = '', updated_at = now()
		WHERE request_id = $1`,
		rec.RequestID, string(StatusAccepted), rec.FinalTxID, rec.ReportID)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, rec FailureRecord) error {
	return s.exec(ctx, rec.RequestID, `UPDATE tx_journal
		SET status = $2, error_message = $3, updated_at = now()
		WHERE request_id = $1`,
		rec.RequestID, string(StatusFailed), rec.ErrorMessage)
}

func (s *PostgresStore) MarkForRetry(ctx context.Context, requestID, errMsg string) error {
	return s.exec(ctx, requestID, `UPDATE tx_journal
		SET status = CASE WHEN status = $2 THEN $3 ELSE status END, error_message = $4, updated_at = now()
		WHERE request_id = $1`,
		requestID, string(StatusTracking), string(StatusPending), errMsg)
}

func (s *PostgresStore) GetByRequestID(ctx context.Context, requestID string) (*TxRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM tx_journal WHERE request_id = $1`, requestID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", requestID, err)
	}
	return rec, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.logger.Println("Closing PostgreSQL connection pool...")
	s.pool.Close()
}

func (s *PostgresStore) exec(ctx context.Context, requestID, sql string, args ...interface{}) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update of record %s failed: %w", requestID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return nil
}

func scanRecord(row pgx.Row) (*TxRecord, error) {
	var r TxRecord
	var status string
	err := row.Scan(&r.RequestID, &r.Handle, &r.Kind, &r.ReportID, &status, &r.FinalTxID,
		&r.ErrorMessage, &r.Attempts, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = TxStatus(status)
	return &r, nil
}

var _ Store = (*PostgresStore)(nil)
