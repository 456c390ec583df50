package entity

import (
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
)

// Draft is a generated-but-unapproved permit packet awaiting clerk review.
// The only legal transition is pending_approval → approved.
type Draft struct {
	ID            string                `json:"id"`
	CreatedAt     time.Time             `json:"created_at"`
	Record        CanonicalRecord       `json:"canonical_record"`
	DocumentPaths map[string]string     `json:"document_paths"` // doc type → artifact path
	Status        constants.DraftStatus `json:"status"`
	ApprovedAt    *time.Time            `json:"approved_at,omitempty"`
}

// Approved reports whether the draft has been signed off.
func (d *Draft) Approved() bool {
	return d.Status == constants.DraftStatusApproved
}
