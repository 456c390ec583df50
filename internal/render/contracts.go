package render

import (
	"context"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// DocumentRenderer turns a canonical record into clerk-reviewable draft
// documents and returns a mapping of document-type label → artifact path.
// Implementations must be idempotent per request id: re-rendering
// overwrites the previous artifacts, it never appends new ones.
type DocumentRenderer interface {
	Render(ctx context.Context, rec entity.CanonicalRecord, requestID string) (map[string]string, error)
}
