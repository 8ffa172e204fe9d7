// Package media manages job photos: capture artifacts uploaded during the
// Checking and Repairing phases plus customer-supplied issue photos. Files
// live in S3-compatible object storage keyed by request, appointment and
// purpose.
package media

import "time"

// Purpose classifies an attachment within a job.
type Purpose string

const (
	// PurposeIssue is customer-supplied evidence; read-only to technicians.
	PurposeIssue Purpose = "issue"
	// PurposeInitial is captured during Checking.
	PurposeInitial Purpose = "initial"
	// PurposeFinal is captured during Repairing.
	PurposeFinal Purpose = "final"
)

// Valid reports whether the purpose is one of the three known values.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeIssue, PurposeInitial, PurposeFinal:
		return true
	}
	return false
}

// MaxPerPurpose caps attachments per purpose per job.
const MaxPerPurpose = 4

// Attachment is one stored photo.
type Attachment struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	RequestID     string     `json:"requestId"`
	AppointmentID string     `json:"appointmentId,omitempty"`
	Purpose       Purpose    `json:"purpose"`
	FileName      string     `json:"fileName"`
	CapturedAt    *time.Time `json:"capturedAt,omitempty"`
	Uploading     bool       `json:"uploading"`
}
