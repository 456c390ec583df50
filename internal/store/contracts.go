// Package store persists drafts through their lifecycle. The backing
// implementation (in-memory map, embedded SQLite, Postgres) is hidden from
// the orchestrator behind DraftRepository.
package store

import (
	"context"

	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// DraftRepository is the draft lifecycle contract.
//
// Create fails with common.ErrAlreadyExists when the id is taken: ids are
// generated per request, so a duplicate is a programming error. Approve is
// idempotent: approving an already-approved draft returns it unchanged and
// keeps the original approval timestamp.
type DraftRepository interface {
	Create(ctx context.Context, draft *entity.Draft) error
	Get(ctx context.Context, id string) (*entity.Draft, error)
	Approve(ctx context.Context, id string) (*entity.Draft, error)
	List(ctx context.Context) ([]*entity.Draft, error)
	// DeleteAll is the administrative purge; returns how many were removed.
	DeleteAll(ctx context.Context) (int, error)
}

// DocumentPath resolves the artifact path for one of a draft's rendered
// documents. Unknown draft id or document type yields common.ErrNotFound.
func DocumentPath(ctx context.Context, repo DraftRepository, id, docType string) (string, error) {
	draft, err := repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	path, ok := draft.DocumentPaths[docType]
	if !ok {
		return "", common.NewAppError("DOCUMENT_NOT_FOUND",
			"draft has no document of type "+docType, common.ErrNotFound)
	}
	return path, nil
}
