// Package render produces the draft permit documents. The default
// implementation emits UTF-8 text files; a real document engine can
// replace it behind the DocumentRenderer interface.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// DefaultAccountNumber is the municipal collection account printed on
// payment instructions.
const DefaultAccountNumber = "123456789/0100"

// paymentDueDays is the statutory payment term.
const paymentDueDays = 30

// TextRenderer writes consent and payment documents under outputDir.
// Artifact names are derived from the request id, so re-rendering the same
// request overwrites rather than appends.
type TextRenderer struct {
	outputDir     string
	accountNumber string
	logger        *slog.Logger
	consentTmpl   *template.Template
	paymentTmpl   *template.Template
	now           func() time.Time
}

func NewTextRenderer(outputDir string, logger *slog.Logger) (*TextRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, common.NewAppError("RENDER_ERROR", "create output dir", err)
	}
	consent, err := template.New(constants.DocConsent).Parse(consentTemplate)
	if err != nil {
		return nil, common.NewAppError("RENDER_ERROR", "parse consent template", err)
	}
	payment, err := template.New(constants.DocPayment).Parse(paymentTemplate)
	if err != nil {
		return nil, common.NewAppError("RENDER_ERROR", "parse payment template", err)
	}
	return &TextRenderer{
		outputDir:     outputDir,
		accountNumber: DefaultAccountNumber,
		logger:        logger,
		consentTmpl:   consent,
		paymentTmpl:   payment,
		now:           time.Now,
	}, nil
}

type templateData struct {
	RequestID     string
	IssuedAt      string
	DueDate       string
	AccountNumber string
	Record        entity.CanonicalRecord
}

func (r *TextRenderer) Render(ctx context.Context, rec entity.CanonicalRecord, requestID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := r.now()
	data := templateData{
		RequestID:     requestID,
		IssuedAt:      now.Format("02.01.2006"),
		DueDate:       now.AddDate(0, 0, paymentDueDays).Format("02.01.2006"),
		AccountNumber: r.accountNumber,
		Record:        rec,
	}

	documents := map[string]string{}
	for docType, tmpl := range map[string]*template.Template{
		constants.DocConsent: r.consentTmpl,
		constants.DocPayment: r.paymentTmpl,
	} {
		path, err := r.renderOne(tmpl, docType, data)
		if err != nil {
			return nil, err
		}
		documents[docType] = path
	}
	r.logger.Info("render.documents.ok", "request_id", requestID, "count", len(documents))
	return documents, nil
}

func (r *TextRenderer) renderOne(tmpl *template.Template, docType string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", common.NewAppError("RENDER_ERROR", "execute "+docType+" template", err)
	}
	path := filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.txt", docType, data.RequestID))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", common.NewAppError("RENDER_ERROR", "write "+docType+" document", err)
	}
	return path, nil
}
