package entity

// CanonicalRecord is the alias-resolved field set for one submission,
// independent of the extractor's raw vocabulary. FeeCZK and VariableSymbol
// are computed by the pipeline, not extracted.
type CanonicalRecord struct {
	ApplicantName  string  `json:"applicant_name"`
	CompanyID      string  `json:"company_id,omitempty"`
	ContactDetails string  `json:"contact_details,omitempty"`
	PurposeOfUse   string  `json:"purpose_of_use"`
	Location       string  `json:"location"`
	DurationRaw    string  `json:"duration_raw,omitempty"` // as written on the form, for documents
	DurationDays   int     `json:"duration_days"`
	AreaSqm        float64 `json:"area_sqm"`
	FeeCZK         int     `json:"fee_czk"`
	VariableSymbol string  `json:"variable_symbol"`
}

// ValidationResult classifies a submission: is it a ZUVP application at
// all, and is it complete enough to process.
type ValidationResult struct {
	IsRecognizedDocument bool           `json:"is_recognized_document"`
	IsComplete           bool           `json:"is_complete"`
	MissingRequired      []string       `json:"missing_required"`
	MissingOptional      []string       `json:"missing_optional"`
	FoundFields          map[string]any `json:"found_fields"`
	Message              string         `json:"message,omitempty"`
}
