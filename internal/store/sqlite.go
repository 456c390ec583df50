package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	record_json    TEXT NOT NULL,
	documents_json TEXT NOT NULL,
	status         TEXT NOT NULL,
	approved_at    TEXT
);`

// SQLiteStore is the default embedded draft store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed initializes) the drafts database at path.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent approvals.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	logger.Info("store.sqlite.opened", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, draft *entity.Draft) error {
	recordJSON, documentsJSON, err := encodeDraft(draft)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (id, created_at, record_json, documents_json, status, approved_at)
		 VALUES (?, ?, ?, ?, ?, NULL)
		 ON CONFLICT(id) DO NOTHING`,
		draft.ID, draft.CreatedAt.UTC().Format(time.RFC3339Nano),
		recordJSON, documentsJSON, string(draft.Status),
	)
	if err != nil {
		return common.NewAppError("STORE_ERROR", "insert draft", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewAppError("STORE_ERROR", "insert draft", err)
	}
	if n == 0 {
		return common.NewAppError("DRAFT_EXISTS", "draft already exists: "+draft.ID, common.ErrAlreadyExists)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*entity.Draft, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, record_json, documents_json, status, approved_at
		 FROM drafts WHERE id = ?`, id)
	return scanDraft(row, id)
}

func (s *SQLiteStore) Approve(ctx context.Context, id string) (*entity.Draft, error) {
	now := time.Now().UTC()
	// Idempotent transition: only a pending draft is touched.
	_, err := s.db.ExecContext(ctx,
		`UPDATE drafts SET status = ?, approved_at = ? WHERE id = ? AND status = ?`,
		string(constants.DraftStatusApproved), now.Format(time.RFC3339Nano),
		id, string(constants.DraftStatusPending),
	)
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "approve draft", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*entity.Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, record_json, documents_json, status, approved_at
		 FROM drafts ORDER BY created_at`)
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "list drafts", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("store.sqlite.rows_close_error", "error", cerr)
		}
	}()

	var out []*entity.Draft
	for rows.Next() {
		d, err := scanDraft(rows, "")
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

func (s *SQLiteStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts`)
	if err != nil {
		return 0, common.NewAppError("STORE_ERROR", "purge drafts", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner, id string) (*entity.Draft, error) {
	var (
		d             entity.Draft
		createdAt     string
		recordJSON    string
		documentsJSON string
		status        string
		approvedAt    sql.NullString
	)
	err := row.Scan(&d.ID, &createdAt, &recordJSON, &documentsJSON, &status, &approvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("DRAFT_NOT_FOUND", "draft not found: "+id, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "scan draft", err)
	}
	if d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, common.NewAppError("STORE_ERROR", "parse created_at", err)
	}
	if err := json.Unmarshal([]byte(recordJSON), &d.Record); err != nil {
		return nil, common.NewAppError("STORE_ERROR", "decode record", err)
	}
	if err := json.Unmarshal([]byte(documentsJSON), &d.DocumentPaths); err != nil {
		return nil, common.NewAppError("STORE_ERROR", "decode documents", err)
	}
	d.Status = constants.DraftStatus(status)
	if approvedAt.Valid && strings.TrimSpace(approvedAt.String) != "" {
		t, err := time.Parse(time.RFC3339Nano, approvedAt.String)
		if err != nil {
			return nil, common.NewAppError("STORE_ERROR", "parse approved_at", err)
		}
		d.ApprovedAt = &t
	}
	return &d, nil
}

func encodeDraft(draft *entity.Draft) (string, string, error) {
	recordJSON, err := json.Marshal(draft.Record)
	if err != nil {
		return "", "", common.NewAppError("STORE_ERROR", "encode record", err)
	}
	documentsJSON, err := json.Marshal(draft.DocumentPaths)
	if err != nil {
		return "", "", common.NewAppError("STORE_ERROR", "encode documents", err)
	}
	return string(recordJSON), string(documentsJSON), nil
}
