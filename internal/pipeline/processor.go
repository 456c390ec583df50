// Package pipeline sequences extraction, normalization, validation, fee
// computation, rendering and draft creation for one submission at a time.
// The processor is reentrant: interactive uploads and folder-watch events
// run through the same entry points concurrently.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
	"github.com/mestsky-urad/zuvp-pipeline/internal/extract"
	"github.com/mestsky-urad/zuvp-pipeline/internal/fee"
	"github.com/mestsky-urad/zuvp-pipeline/internal/ingest"
	"github.com/mestsky-urad/zuvp-pipeline/internal/normalize"
	"github.com/mestsky-urad/zuvp-pipeline/internal/notify"
	"github.com/mestsky-urad/zuvp-pipeline/internal/render"
	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
	"github.com/mestsky-urad/zuvp-pipeline/internal/validate"
)

// Outcome is the typed per-submission result. Business rejections
// (validation_failed, incomplete_data) are outcomes, never errors.
type Outcome struct {
	RequestID  string                  `json:"request_id"`
	Status     constants.OutcomeStatus `json:"status"`
	Validation entity.ValidationResult `json:"validation"`
	Record     *entity.CanonicalRecord `json:"extracted_data,omitempty"`
	Draft      *entity.Draft           `json:"draft,omitempty"`
}

// Processor coordinates the stages per incoming request.
type Processor struct {
	logger     *slog.Logger
	ingestor   ingest.Ingestor
	cache      *extract.Cache
	extractor  extract.EntityExtractor
	normalizer *normalize.Normalizer
	renderer   render.DocumentRenderer
	notifier   notify.Notifier
	drafts     store.DraftRepository
	rate       int
	now        func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	ingestor ingest.Ingestor,
	cache *extract.Cache,
	extractor extract.EntityExtractor,
	normalizer *normalize.Normalizer,
	renderer render.DocumentRenderer,
	notifier notify.Notifier,
	drafts store.DraftRepository,
	ratePerSqmDay int,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = &notify.LogNotifier{Logger: logger}
	}
	if ratePerSqmDay < 0 {
		ratePerSqmDay = 0
	}
	return &Processor{
		logger:     logger,
		ingestor:   ingestor,
		cache:      cache,
		extractor:  extractor,
		normalizer: normalizer,
		renderer:   renderer,
		notifier:   notifier,
		drafts:     drafts,
		rate:       ratePerSqmDay,
		now:        time.Now,
	}
}

// ProcessUpload handles an interactive submission.
func (p *Processor) ProcessUpload(ctx context.Context, filename string, data []byte) (*Outcome, error) {
	req, err := p.ingestor.IngestBytes(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, req, data)
}

// ProcessPath handles a folder-watch event; the file is treated exactly
// like an interactive upload under a fresh request id.
func (p *Processor) ProcessPath(ctx context.Context, path string) (*Outcome, error) {
	req, data, err := p.ingestor.IngestPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, req, data)
}

func (p *Processor) process(ctx context.Context, req entity.Request, data []byte) (*Outcome, error) {
	id := req.ID.String()
	p.logger.Info("pipeline.ingested",
		"request_id", id, "hash", req.ContentHash, "kind", req.MediaKind, "bytes", len(data),
	)

	// Extraction, at most one external call per content hash.
	res, err := p.cache.GetOrExtract(ctx, req.ContentHash, func(ctx context.Context) (entity.ExtractionResult, error) {
		return p.extractor.Extract(ctx, data, req.MediaKind)
	})
	if err != nil {
		// Infrastructure fault before the extractor produced anything:
		// surface it so the caller can retry later.
		return nil, fmt.Errorf("extraction: %w", err)
	}
	p.logger.Info("pipeline.extracted",
		"request_id", id, "fields", len(res.Fields), "error_marker", res.IsError(),
	)

	record := p.normalizer.Normalize(res)
	validation := validate.Run(res)
	p.logger.Info("pipeline.validated",
		"request_id", id,
		"recognized", validation.IsRecognizedDocument,
		"complete", validation.IsComplete,
		"missing_required", len(validation.MissingRequired),
	)

	if !validation.IsRecognizedDocument {
		return &Outcome{
			RequestID:  id,
			Status:     constants.OutcomeValidationFailed,
			Validation: validation,
		}, nil
	}
	if !validation.IsComplete {
		// No partial drafts: the applicant resubmits a complete document.
		return &Outcome{
			RequestID:  id,
			Status:     constants.OutcomeIncompleteData,
			Validation: validation,
			Record:     &record,
		}, nil
	}

	record.FeeCZK = fee.Compute(record.AreaSqm, record.DurationDays, p.rate)
	record.VariableSymbol = fee.VariableSymbol(id)

	documents, err := p.renderer.Render(ctx, record, id)
	if err != nil {
		// Render failures must never leave a draft with missing documents.
		return nil, common.NewAppError("RENDER_FAILED", "render documents for "+id+": "+err.Error(), common.ErrRender)
	}
	p.logger.Info("pipeline.rendered", "request_id", id, "documents", len(documents))

	draft := &entity.Draft{
		ID:            id,
		CreatedAt:     p.now().UTC(),
		Record:        record,
		DocumentPaths: documents,
		Status:        constants.DraftStatusPending,
	}
	if err := p.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	p.logger.Info("pipeline.drafted",
		"request_id", id, "fee_czk", record.FeeCZK, "variable_symbol", record.VariableSymbol,
	)

	// Fire-and-forget: the notifier logs its own failures.
	_ = p.notifier.DraftCreated(ctx, draft)

	return &Outcome{
		RequestID:  id,
		Status:     constants.OutcomeDraftCreated,
		Validation: validation,
		Record:     &record,
		Draft:      draft,
	}, nil
}
