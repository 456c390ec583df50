package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

func sampleDraft(id string, at time.Time) *entity.Draft {
	return &entity.Draft{
		ID:        id,
		CreatedAt: at,
		Record: entity.CanonicalRecord{
			ApplicantName:  "Jan Novák",
			PurposeOfUse:   "předzahrádka",
			Location:       "Náměstí Míru 12",
			DurationDays:   10,
			AreaSqm:        25,
			FeeCZK:         2500,
			VariableSymbol: "0123456789",
		},
		DocumentPaths: map[string]string{
			constants.DocConsent: "/tmp/consent_" + id + ".txt",
			constants.DocPayment: "/tmp/payment_" + id + ".txt",
		},
		Status: constants.DraftStatusPending,
	}
}

// repositoryContract runs the lifecycle behaviors every DraftRepository
// backend must share.
func repositoryContract(t *testing.T, repo DraftRepository) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		d := sampleDraft("req-1", base)
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.Get(ctx, "req-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Record.ApplicantName != "Jan Novák" || got.Record.FeeCZK != 2500 {
			t.Errorf("round trip lost record data: %+v", got.Record)
		}
		if got.Status != constants.DraftStatusPending {
			t.Errorf("Status = %q, want pending_approval", got.Status)
		}
		if got.DocumentPaths[constants.DocConsent] == "" {
			t.Error("document paths not persisted")
		}
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		err := repo.Create(ctx, sampleDraft("req-1", base))
		if !errors.Is(err, common.ErrAlreadyExists) {
			t.Errorf("duplicate Create err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		if _, err := repo.Get(ctx, "no-such"); !errors.Is(err, common.ErrNotFound) {
			t.Errorf("Get err = %v, want ErrNotFound", err)
		}
	})

	t.Run("approve unknown id leaves store unchanged", func(t *testing.T) {
		before, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if _, err := repo.Approve(ctx, "no-such"); !errors.Is(err, common.ErrNotFound) {
			t.Errorf("Approve err = %v, want ErrNotFound", err)
		}
		after, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(before) != len(after) {
			t.Errorf("failed Approve changed the store: %d -> %d drafts", len(before), len(after))
		}
	})

	t.Run("approve is idempotent", func(t *testing.T) {
		first, err := repo.Approve(ctx, "req-1")
		if err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if first.Status != constants.DraftStatusApproved || first.ApprovedAt == nil {
			t.Fatalf("Approve did not mark draft: status=%q approved_at=%v", first.Status, first.ApprovedAt)
		}
		second, err := repo.Approve(ctx, "req-1")
		if err != nil {
			t.Fatalf("second Approve: %v", err)
		}
		if second.ApprovedAt == nil || !second.ApprovedAt.Equal(*first.ApprovedAt) {
			t.Errorf("re-approval changed approved_at: %v -> %v", first.ApprovedAt, second.ApprovedAt)
		}
	})

	t.Run("list is ordered by creation time", func(t *testing.T) {
		if err := repo.Create(ctx, sampleDraft("req-0", base.Add(-time.Hour))); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := repo.Create(ctx, sampleDraft("req-2", base.Add(time.Hour))); err != nil {
			t.Fatalf("Create: %v", err)
		}
		drafts, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(drafts) != 3 {
			t.Fatalf("List returned %d drafts, want 3", len(drafts))
		}
		wantOrder := []string{"req-0", "req-1", "req-2"}
		for i, id := range wantOrder {
			if drafts[i].ID != id {
				t.Errorf("List[%d].ID = %q, want %q", i, drafts[i].ID, id)
			}
		}
	})

	t.Run("document path resolution", func(t *testing.T) {
		path, err := DocumentPath(ctx, repo, "req-1", constants.DocPayment)
		if err != nil {
			t.Fatalf("DocumentPath: %v", err)
		}
		if path != "/tmp/payment_req-1.txt" {
			t.Errorf("DocumentPath = %q", path)
		}
		if _, err := DocumentPath(ctx, repo, "req-1", "minutes"); !errors.Is(err, common.ErrNotFound) {
			t.Errorf("unknown doc type err = %v, want ErrNotFound", err)
		}
		if _, err := DocumentPath(ctx, repo, "no-such", constants.DocPayment); !errors.Is(err, common.ErrNotFound) {
			t.Errorf("unknown draft err = %v, want ErrNotFound", err)
		}
	})

	t.Run("returned drafts are isolated copies", func(t *testing.T) {
		got, err := repo.Get(ctx, "req-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		got.DocumentPaths[constants.DocPayment] = "/tmp/tampered.txt"
		got.Record.FeeCZK = -1

		again, err := repo.Get(ctx, "req-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if again.DocumentPaths[constants.DocPayment] != "/tmp/payment_req-1.txt" {
			t.Errorf("mutating a returned draft reached the store: %q",
				again.DocumentPaths[constants.DocPayment])
		}
		if again.Record.FeeCZK != 2500 {
			t.Errorf("FeeCZK = %d after caller mutation, want 2500", again.Record.FeeCZK)
		}

		listed, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for _, d := range listed {
			if d.ID == "req-1" {
				d.DocumentPaths[constants.DocConsent] = "/tmp/tampered.txt"
			}
		}
		final, err := repo.Get(ctx, "req-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if final.DocumentPaths[constants.DocConsent] != "/tmp/consent_req-1.txt" {
			t.Errorf("mutating a listed draft reached the store: %q",
				final.DocumentPaths[constants.DocConsent])
		}
	})

	t.Run("delete all", func(t *testing.T) {
		removed, err := repo.DeleteAll(ctx)
		if err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}
		if removed != 3 {
			t.Errorf("DeleteAll removed %d, want 3", removed)
		}
		drafts, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(drafts) != 0 {
			t.Errorf("store not empty after DeleteAll: %d drafts", len(drafts))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	repositoryContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "drafts.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	repositoryContract(t, db)
}
