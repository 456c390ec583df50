package constants

// DraftStatus is the canonical lifecycle status for a stored draft.
type DraftStatus string

// Stable values (store these exact strings in DB).
const (
	DraftStatusPending  DraftStatus = "pending_approval" // awaiting clerk review
	DraftStatusApproved DraftStatus = "approved"         // clerk signed off
)

// OutcomeStatus is the per-submission processing result reported to callers.
type OutcomeStatus string

const (
	OutcomeDraftCreated     OutcomeStatus = "draft_created"     // full pipeline success
	OutcomeValidationFailed OutcomeStatus = "validation_failed" // not recognized as a ZUVP application
	OutcomeIncompleteData   OutcomeStatus = "incomplete_data"   // recognized, required fields missing
)
