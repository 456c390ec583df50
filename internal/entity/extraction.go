package entity

// ExtractionResult is whatever the external entity extractor produced for
// one submission: either a loosely structured key→value mapping or an
// explicit error marker. It is cached by content hash and never mutated.
type ExtractionResult struct {
	Fields map[string]any `json:"fields,omitempty"`
	// RawResponse carries the model reply when it was not parseable JSON.
	RawResponse string `json:"raw_response,omitempty"`
	// Err is the explicit error marker for extraction failures and
	// timeouts. It flows into the validator as data, never as a Go error.
	Err string `json:"error,omitempty"`
}

// IsError reports whether the extractor signaled an explicit failure.
func (r ExtractionResult) IsError() bool {
	return r.Err != ""
}

// IsEmpty reports whether the extractor produced no usable output at all.
func (r ExtractionResult) IsEmpty() bool {
	return len(r.Fields) == 0 && r.RawResponse == ""
}
