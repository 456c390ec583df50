package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

func testRecord() entity.CanonicalRecord {
	return entity.CanonicalRecord{
		ApplicantName:  "Pekárna U Lípy s.r.o.",
		CompanyID:      "12345678",
		ContactDetails: "info@pekarna.cz",
		PurposeOfUse:   "předzahrádka",
		Location:       "Náměstí Míru 12",
		DurationRaw:    "01.06.2025 - 30.06.2025",
		DurationDays:   30,
		AreaSqm:        25,
		FeeCZK:         7500,
		VariableSymbol: "0123456789",
	}
}

func TestRenderWritesBothDocuments(t *testing.T) {
	dir := t.TempDir()
	r, err := NewTextRenderer(dir, nil)
	if err != nil {
		t.Fatalf("NewTextRenderer: %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }

	documents, err := r.Render(context.Background(), testRecord(), "req-42")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("Render returned %d documents, want 2", len(documents))
	}

	consent, err := os.ReadFile(documents[constants.DocConsent])
	if err != nil {
		t.Fatalf("read consent: %v", err)
	}
	for _, want := range []string{"Pekárna U Lípy s.r.o.", "Náměstí Míru 12", "01.06.2025 - 30.06.2025", "7500 Kč", "req-42"} {
		if !strings.Contains(string(consent), want) {
			t.Errorf("consent document missing %q", want)
		}
	}

	payment, err := os.ReadFile(documents[constants.DocPayment])
	if err != nil {
		t.Fatalf("read payment: %v", err)
	}
	for _, want := range []string{"Variabilní symbol: 0123456789", "Částka k úhradě: 7500 Kč", DefaultAccountNumber, "Splatnost: 01.07.2025"} {
		if !strings.Contains(string(payment), want) {
			t.Errorf("payment document missing %q", want)
		}
	}
}

func TestRenderIsIdempotentPerRequest(t *testing.T) {
	dir := t.TempDir()
	r, err := NewTextRenderer(dir, nil)
	if err != nil {
		t.Fatalf("NewTextRenderer: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := r.Render(context.Background(), testRecord(), "req-7"); err != nil {
			t.Fatalf("Render #%d: %v", i+1, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("re-render produced %d files, want 2 (overwrite, not append)", len(entries))
	}
}

func TestRenderOmitsFeeWithoutArea(t *testing.T) {
	dir := t.TempDir()
	r, err := NewTextRenderer(dir, nil)
	if err != nil {
		t.Fatalf("NewTextRenderer: %v", err)
	}
	rec := testRecord()
	rec.AreaSqm = 0
	rec.FeeCZK = 0

	documents, err := r.Render(context.Background(), rec, "req-8")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	consent, err := os.ReadFile(documents[constants.DocConsent])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(consent), "Výměra") {
		t.Error("consent must omit the area block when no area was extracted")
	}
}

func TestRenderArtifactNaming(t *testing.T) {
	dir := t.TempDir()
	r, err := NewTextRenderer(dir, nil)
	if err != nil {
		t.Fatalf("NewTextRenderer: %v", err)
	}
	documents, err := r.Render(context.Background(), testRecord(), "req-9")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := filepath.Join(dir, "consent_req-9.txt")
	if documents[constants.DocConsent] != want {
		t.Errorf("consent path = %q, want %q", documents[constants.DocConsent], want)
	}
}
