package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// FSIngestor persists accepted submissions under UploadDir as
// "<requestID>_<name>" and computes their content hash.
type FSIngestor struct {
	UploadDir string
	Logger    *slog.Logger
}

func NewFSIngestor(uploadDir string, logger *slog.Logger) (*FSIngestor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, common.NewAppError("INGEST_ERROR", "create upload dir", err)
	}
	return &FSIngestor{UploadDir: uploadDir, Logger: logger}, nil
}

func (i *FSIngestor) IngestBytes(ctx context.Context, filename string, data []byte) (entity.Request, error) {
	if err := ctx.Err(); err != nil {
		return entity.Request{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(filename))
	kind := constants.MapExtToMediaKind(ext)
	if kind == "" {
		return entity.Request{}, common.NewAppError("UNSUPPORTED_FILE",
			fmt.Sprintf("file type not supported: %q", filename), common.ErrIngestion)
	}
	if len(data) == 0 {
		return entity.Request{}, common.NewAppError("EMPTY_FILE",
			fmt.Sprintf("empty submission: %q", filename), common.ErrIngestion)
	}

	id := uuid.New()
	dest := filepath.Join(i.UploadDir, id.String()+"_"+sanitizeName(filename))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return entity.Request{}, common.NewAppError("INGEST_ERROR", "save upload", err)
	}

	sum := sha256.Sum256(data)
	req := entity.Request{
		ID:          id,
		SourcePath:  dest,
		ContentHash: hex.EncodeToString(sum[:]),
		MediaKind:   kind,
		ReceivedAt:  time.Now().UTC(),
	}
	i.Logger.Info("ingest.saved",
		"request_id", id, "path", dest, "hash", req.ContentHash, "kind", kind,
	)
	return req, nil
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (entity.Request, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Request{}, nil, common.NewAppError("INGEST_ERROR", "read watched file", err)
	}
	req, err := i.IngestBytes(ctx, filepath.Base(path), data)
	if err != nil {
		return entity.Request{}, nil, err
	}
	return req, data, nil
}

// sanitizeName keeps uploads from escaping the upload directory.
func sanitizeName(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, "..", "")
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '\x00':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "upload"
	}
	return base
}

// ArchiveProcessed moves a successfully processed watched file into a
// "processed" sibling directory so the watcher never re-emits it.
func ArchiveProcessed(path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	archiveDir := filepath.Join(filepath.Dir(path), "processed")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return common.NewAppError("ARCHIVE_ERROR", "create archive dir", err)
	}
	dest := filepath.Join(archiveDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return common.NewAppError("ARCHIVE_ERROR", "move processed file", err)
	}
	logger.Info("ingest.archived", "from", path, "to", dest)
	return nil
}
