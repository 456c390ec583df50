package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
)

func TestExportDraftsXLSX(t *testing.T) {
	ctx := context.Background()
	drafts := store.NewMemoryStore()
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	err := drafts.Create(ctx, &entity.Draft{
		ID:        "req-1",
		CreatedAt: created,
		Record: entity.CanonicalRecord{
			ApplicantName:  "Jan Novák",
			CompanyID:      "12345678",
			Location:       "Náměstí Míru 12",
			PurposeOfUse:   "stánek",
			AreaSqm:        25,
			DurationDays:   10,
			FeeCZK:         2500,
			VariableSymbol: "0123456789",
		},
		Status: constants.DraftStatusPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, err := NewService(drafts, nil).ExportDraftsXLSX(ctx)
	if err != nil {
		t.Fatalf("ExportDraftsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook unreadable: %v", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			t.Errorf("close workbook: %v", cerr)
		}
	}()

	rows, err := f.GetRows("Drafts")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("workbook has %d rows, want header + 1 draft", len(rows))
	}
	if rows[0][0] != "Request ID" || rows[0][9] != "Variable Symbol" {
		t.Errorf("header row = %v", rows[0])
	}

	got := rows[1]
	want := map[int]string{
		0: "req-1",
		1: "2025-06-01 09:30",
		2: "Jan Novák",
		8: "2500",
		9: "0123456789",
	}
	for col, v := range want {
		if col >= len(got) || got[col] != v {
			t.Errorf("row col %d = %q, want %q (row: %v)", col, cellAt(got, col), v, got)
		}
	}
	if got[10] != string(constants.DraftStatusPending) {
		t.Errorf("status column = %q", got[10])
	}
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func TestExportEmptyStore(t *testing.T) {
	data, err := NewService(store.NewMemoryStore(), nil).ExportDraftsXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportDraftsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook unreadable: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Drafts")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("empty export has %d rows, want header only", len(rows))
	}
}
