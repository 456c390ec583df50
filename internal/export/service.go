// Package export produces the clerk's draft register as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
)

// Service is a tiny façade over the draft store that produces XLSX bytes.
type Service struct {
	drafts store.DraftRepository
	logger *slog.Logger
}

func NewService(drafts store.DraftRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{drafts: drafts, logger: logger}
}

// ExportDraftsXLSX returns a workbook with one row per stored draft, in
// creation order.
func (s *Service) ExportDraftsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	drafts, err := s.drafts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Drafts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Request ID",
		"Created",
		"Applicant",
		"IČO",
		"Location",
		"Purpose",
		"Area m²",
		"Days",
		"Fee CZK",
		"Variable Symbol",
		"Status",
		"Approved",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range drafts {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		rec := d.Record

		write(1, d.ID)
		write(2, d.CreatedAt.UTC().Format("2006-01-02 15:04"))
		write(3, rec.ApplicantName)
		write(4, rec.CompanyID)
		write(5, rec.Location)
		write(6, rec.PurposeOfUse)
		write(7, rec.AreaSqm)
		write(8, rec.DurationDays)
		write(9, rec.FeeCZK)
		write(10, rec.VariableSymbol)
		write(11, string(d.Status))
		if d.ApprovedAt != nil {
			write(12, d.ApprovedAt.UTC().Format("2006-01-02 15:04"))
		} else {
			write(12, "")
		}
		row++
	}

	// Widen the columns clerks actually read.
	_ = f.SetColWidth(sheet, "A", "A", 38) // request id
	_ = f.SetColWidth(sheet, "B", "B", 18) // created
	_ = f.SetColWidth(sheet, "C", "C", 28) // applicant
	_ = f.SetColWidth(sheet, "E", "F", 36) // location, purpose
	_ = f.SetColWidth(sheet, "J", "J", 16) // variable symbol

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(drafts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
