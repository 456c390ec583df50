package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	id             TEXT PRIMARY KEY,
	created_at     TIMESTAMPTZ NOT NULL,
	record_json    JSONB NOT NULL,
	documents_json JSONB NOT NULL,
	status         TEXT NOT NULL,
	approved_at    TIMESTAMPTZ
);`

// PostgresStore backs the draft store with a shared Postgres instance for
// multi-office deployments.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool, verifies connectivity and ensures the
// schema exists.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("store.postgres.connecting")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "parse dsn", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "zuvp-pipeline"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "connect", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, common.NewAppError("STORE_ERROR", "ping", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, common.NewAppError("STORE_ERROR", "init schema", err)
	}
	logger.Info("store.postgres.connected")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Create(ctx context.Context, draft *entity.Draft) error {
	recordJSON, documentsJSON, err := encodeDraft(draft)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO drafts (id, created_at, record_json, documents_json, status, approved_at)
		 VALUES ($1, $2, $3, $4, $5, NULL)
		 ON CONFLICT (id) DO NOTHING`,
		draft.ID, draft.CreatedAt.UTC(), recordJSON, documentsJSON, string(draft.Status),
	)
	if err != nil {
		return common.NewAppError("STORE_ERROR", "insert draft", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("DRAFT_EXISTS", "draft already exists: "+draft.ID, common.ErrAlreadyExists)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*entity.Draft, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, created_at, record_json::text, documents_json::text, status, approved_at
		 FROM drafts WHERE id = $1`, id)
	return scanPGDraft(row, id)
}

func (s *PostgresStore) Approve(ctx context.Context, id string) (*entity.Draft, error) {
	_, err := s.pool.Exec(ctx,
		`UPDATE drafts SET status = $1, approved_at = $2 WHERE id = $3 AND status = $4`,
		string(constants.DraftStatusApproved), time.Now().UTC(),
		id, string(constants.DraftStatusPending),
	)
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "approve draft", err)
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) List(ctx context.Context) ([]*entity.Draft, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, record_json::text, documents_json::text, status, approved_at
		 FROM drafts ORDER BY created_at`)
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "list drafts", err)
	}
	defer rows.Close()

	var out []*entity.Draft
	for rows.Next() {
		d, err := scanPGDraft(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("STORE_ERROR", "list drafts", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drafts`)
	if err != nil {
		return 0, common.NewAppError("STORE_ERROR", "purge drafts", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanPGDraft(row pgx.Row, id string) (*entity.Draft, error) {
	var (
		d             entity.Draft
		recordJSON    string
		documentsJSON string
		status        string
		approvedAt    *time.Time
	)
	err := row.Scan(&d.ID, &d.CreatedAt, &recordJSON, &documentsJSON, &status, &approvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("DRAFT_NOT_FOUND", "draft not found: "+id, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "scan draft", err)
	}
	if err := json.Unmarshal([]byte(recordJSON), &d.Record); err != nil {
		return nil, common.NewAppError("STORE_ERROR", "decode record", err)
	}
	if err := json.Unmarshal([]byte(documentsJSON), &d.DocumentPaths); err != nil {
		return nil, common.NewAppError("STORE_ERROR", "decode documents", err)
	}
	d.Status = constants.DraftStatus(status)
	d.ApprovedAt = approvedAt
	return &d, nil
}
