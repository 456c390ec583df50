package ingest

import (
	"context"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// Ingestor is the behavior the pipeline depends on for accepting
// submissions. Both entry points assign a fresh request id.
type Ingestor interface {
	// IngestBytes accepts an interactive upload.
	IngestBytes(ctx context.Context, filename string, data []byte) (entity.Request, error)
	// IngestPath accepts a folder-watch event and returns the file bytes
	// alongside the request.
	IngestPath(ctx context.Context, path string) (entity.Request, []byte, error)
}
