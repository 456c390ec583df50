// Package validate classifies raw extraction output: first "is this a ZUVP
// application at all", then "is it complete enough to process".
package validate

import (
	"strings"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
	"github.com/mestsky-urad/zuvp-pipeline/internal/normalize"
)

// Display labels, in the fixed order missing-field lists are reported in.
const (
	LabelApplicantName  = "Jméno žadatele"
	LabelPurposeOfUse   = "Účel užívání"
	LabelLocation       = "Místo/lokace"
	LabelCompanyID      = "IČO"
	LabelContactDetails = "Kontaktní údaje"
	LabelDuration       = "Doba užívání"
	LabelArea           = "Výměra"
)

type labeledField struct {
	field normalize.Field
	label string
}

// Required fields for a processable application. Duration and area are
// deliberately optional: the fee calculator degrades to zero on its own,
// and clerks routinely fill them in during review.
var requiredFields = []labeledField{
	{normalize.FieldApplicantName, LabelApplicantName},
	{normalize.FieldPurposeOfUse, LabelPurposeOfUse},
	{normalize.FieldLocation, LabelLocation},
}

var optionalFields = []labeledField{
	{normalize.FieldCompanyID, LabelCompanyID},
	{normalize.FieldContactDetails, LabelContactDetails},
	{normalize.FieldDuration, LabelDuration},
	{normalize.FieldArea, LabelArea},
}

// Rejection and advisory messages shown to applicants.
const (
	msgNoData    = "Dokument neobsahuje žádné rozpoznatelné ZUVP údaje."
	msgWrongDoc  = "Nahraný dokument není ZUVP žádost. Nahrajte prosím správný formulář žádosti o zvláštní užívání veřejného prostranství."
	msgNoFields  = "Dokument neobsahuje rozpoznatelné ZUVP údaje. Zkontrolujte, zda jste nahráli správný formulář."
	msgMissing   = "Chybí povinné údaje: "
	msgAdvisory  = "Chybí nepovinné údaje: "
	notZUVPMark  = "not a zuvp"
	notZUVPMarkC = "není zuvp"
)

// Run performs the two-phase classification of raw extraction output.
func Run(raw entity.ExtractionResult) entity.ValidationResult {
	// Phase 1: recognition. Explicit extractor error or no output at all.
	if raw.IsError() || raw.IsEmpty() {
		return rejected(msgNoData)
	}

	// An unparsed model reply may still carry an explicit "wrong document
	// type" verdict.
	if raw.RawResponse != "" {
		lower := strings.ToLower(raw.RawResponse)
		if strings.Contains(lower, notZUVPMark) || strings.Contains(lower, notZUVPMarkC) {
			return rejected(msgWrongDoc)
		}
	}

	found := map[string]any{}
	var missingRequired, missingOptional []string

	for _, f := range requiredFields {
		if v, ok := normalize.Resolve(raw.Fields, f.field); ok {
			found[f.label] = v
		} else {
			missingRequired = append(missingRequired, f.label)
		}
	}
	for _, f := range optionalFields {
		if v, ok := normalize.Resolve(raw.Fields, f.field); ok {
			found[f.label] = v
		} else {
			missingOptional = append(missingOptional, f.label)
		}
	}

	// Nothing usable resolved: not this document type.
	if len(found) == 0 {
		return rejected(msgNoFields)
	}

	res := entity.ValidationResult{
		IsRecognizedDocument: true,
		IsComplete:           len(missingRequired) == 0,
		MissingRequired:      missingRequired,
		MissingOptional:      missingOptional,
		FoundFields:          found,
	}
	switch {
	case !res.IsComplete:
		res.Message = msgMissing + strings.Join(missingRequired, ", ")
	case len(missingOptional) > 0:
		res.Message = msgAdvisory + strings.Join(missingOptional, ", ")
	}
	return res
}

// rejected builds the fixed not-recognized result: every field is reported
// missing and completeness checks are skipped.
func rejected(message string) entity.ValidationResult {
	res := entity.ValidationResult{
		IsRecognizedDocument: false,
		IsComplete:           false,
		FoundFields:          map[string]any{},
		Message:              message,
	}
	for _, f := range requiredFields {
		res.MissingRequired = append(res.MissingRequired, f.label)
	}
	for _, f := range optionalFields {
		res.MissingOptional = append(res.MissingOptional, f.label)
	}
	return res
}
