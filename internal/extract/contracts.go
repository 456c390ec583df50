package extract

import (
	"context"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// EntityExtractor is the opaque external capability: submission bytes plus
// a declared media kind in, a loosely structured mapping or an explicit
// error marker out. The pipeline accepts any key-naming scheme it returns.
//
// A non-nil error means the capability produced nothing at all (transport
// fault before any output); such calls are not cached, so a resubmission
// retries. API failures and timeouts are reported inside the result as an
// error marker and flow into the validator as data.
type EntityExtractor interface {
	Extract(ctx context.Context, data []byte, mediaKind string) (entity.ExtractionResult, error)
}

// ExtractFunc adapts a plain function to the cache's callback shape.
type ExtractFunc func(ctx context.Context) (entity.ExtractionResult, error)
