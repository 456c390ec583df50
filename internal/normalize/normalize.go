// Package normalize maps the extractor's heterogeneous vocabulary into the
// canonical record schema. It never fails on malformed input; it degrades
// to defaults and lets the validator flag what is missing.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// Field is a canonical field identifier.
type Field string

const (
	FieldApplicantName  Field = "applicant_name"
	FieldCompanyID      Field = "company_id"
	FieldContactDetails Field = "contact_details"
	FieldPurposeOfUse   Field = "purpose_of_use"
	FieldLocation       Field = "location"
	FieldDuration       Field = "duration"
	FieldArea           Field = "area_sqm"
)

// Aliases is the ordered list of accepted extractor keys per canonical
// field. Earlier entries win. Covers both the legacy English labels and
// the newer snake_case variants observed in extractor output.
var Aliases = map[Field][]string{
	FieldApplicantName:  {"applicant_name", "Applicant name", "applicant", "name"},
	FieldCompanyID:      {"company_id", "Company ID (IČO)", "ico", "IČO"},
	FieldContactDetails: {"contact_details", "Contact details", "contact"},
	FieldPurposeOfUse:   {"purpose_of_use", "purpose", "Purpose of use"},
	FieldLocation:       {"specific_location", "location", "Location"},
	FieldDuration:       {"duration", "Duration (dates)", "duration_dates"},
	FieldArea:           {"area_in_square_meters", "area_sqm", "area", "Area in square meters"},
}

// placeholders are values the extractor emits for "nothing found".
var placeholders = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"none": {},
	"null": {},
}

func isPlaceholder(v any) bool {
	s, ok := v.(string)
	if !ok {
		return v == nil
	}
	_, hit := placeholders[strings.ToLower(strings.TrimSpace(s))]
	return hit
}

// Resolve returns the first alias value that is present and not a
// placeholder. Resolution order is fixed by the alias table.
func Resolve(fields map[string]any, f Field) (any, bool) {
	for _, key := range Aliases[f] {
		v, ok := fields[key]
		if !ok || isPlaceholder(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// ResolveString resolves a field and renders it as a trimmed string.
func ResolveString(fields map[string]any, f Field) string {
	v, ok := Resolve(fields, f)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// Normalizer builds canonical records from raw extraction output.
type Normalizer struct {
	fallbackDays int
}

func New(fallbackDays int) *Normalizer {
	if fallbackDays <= 0 {
		fallbackDays = DefaultFallbackDurationDays
	}
	return &Normalizer{fallbackDays: fallbackDays}
}

// Normalize maps raw extractor output into a canonical record. Fee and
// variable symbol are left zero; the pipeline computes them.
func (n *Normalizer) Normalize(raw entity.ExtractionResult) entity.CanonicalRecord {
	fields := raw.Fields
	rec := entity.CanonicalRecord{
		ApplicantName:  ResolveString(fields, FieldApplicantName),
		CompanyID:      ResolveString(fields, FieldCompanyID),
		ContactDetails: ResolveString(fields, FieldContactDetails),
		PurposeOfUse:   ResolveString(fields, FieldPurposeOfUse),
		Location:       ResolveString(fields, FieldLocation),
	}

	if v, ok := Resolve(fields, FieldDuration); ok {
		rec.DurationRaw = durationText(v)
		rec.DurationDays = ParseDuration(v, n.fallbackDays)
	} else {
		rec.DurationDays = n.fallbackDays
	}

	if v, ok := Resolve(fields, FieldArea); ok {
		rec.AreaSqm = parseArea(v)
	}
	return rec
}

// parseArea coerces the many numeric shapes extractors emit for the area
// field. Unparsable values degrade to 0.
func parseArea(v any) float64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return t
	case int:
		if t < 0 {
			return 0
		}
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		// strip trailing units like "m²" or "m2"
		if i := strings.IndexFunc(s, func(r rune) bool {
			return !(r >= '0' && r <= '9') && r != '.' && r != ','
		}); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0
		}
		return f
	default:
		return 0
	}
}

// durationText renders the duration value the way it should appear on the
// generated documents.
func durationText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		start, end := durationBounds(t)
		if start != "" && end != "" {
			return start + " - " + end
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
