package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// MemoryStore keeps drafts in a mutex-guarded map. Used in tests and as
// the zero-setup backend for local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]*entity.Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]*entity.Draft)}
}

func (s *MemoryStore) Create(_ context.Context, draft *entity.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.drafts[draft.ID]; exists {
		return common.NewAppError("DRAFT_EXISTS", "draft already exists: "+draft.ID, common.ErrAlreadyExists)
	}
	s.drafts[draft.ID] = cloneDraft(draft)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[id]
	if !ok {
		return nil, common.NewAppError("DRAFT_NOT_FOUND", "draft not found: "+id, common.ErrNotFound)
	}
	return cloneDraft(draft), nil
}

func (s *MemoryStore) Approve(_ context.Context, id string) (*entity.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return nil, common.NewAppError("DRAFT_NOT_FOUND", "draft not found: "+id, common.ErrNotFound)
	}
	if draft.Status != constants.DraftStatusApproved {
		now := time.Now().UTC()
		draft.Status = constants.DraftStatusApproved
		draft.ApprovedAt = &now
	}
	return cloneDraft(draft), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*entity.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		out = append(out, cloneDraft(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.drafts)
	s.drafts = make(map[string]*entity.Draft)
	return n, nil
}

// cloneDraft copies a draft deeply enough that neither the caller's input
// nor a returned draft shares mutable state with the stored one.
func cloneDraft(d *entity.Draft) *entity.Draft {
	cp := *d
	if d.DocumentPaths != nil {
		cp.DocumentPaths = make(map[string]string, len(d.DocumentPaths))
		for k, v := range d.DocumentPaths {
			cp.DocumentPaths[k] = v
		}
	}
	if d.ApprovedAt != nil {
		at := *d.ApprovedAt
		cp.ApprovedAt = &at
	}
	return &cp
}

// Len reports the number of stored drafts. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}
