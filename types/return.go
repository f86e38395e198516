package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Frequency is how often a return is due.
type Frequency string

// Supported frequencies.
const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// Frequencies lists every frequency in catalog order.
var Frequencies = []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return true
	}
	return false
}

// ReturnRecord represents a submitted return (a periodic report) for a station.
// Records are append-only: nothing edits or deletes them after submission,
// except for the submitter rewrite that follows an account rename.
type ReturnRecord struct {
	// ID increases with every submission; ordering by ID is insertion order.
	ID int64 `json:"id" db:"id"`

	// Frequency is the reporting period of the return.
	Frequency Frequency `json:"frequency" db:"frequency"`

	// ReturnType is the catalog slug, e.g. "staff-nominal-roll".
	ReturnType string `json:"returnType" db:"return_type"`

	// Station is the station the return reports on.
	Station string `json:"station" db:"station"`

	// Data is the free-text return payload.
	Data string `json:"data" db:"data"`

	// Comment is an optional note from the submitter.
	Comment string `json:"comment,omitempty" db:"comment"`

	// SubmittedBy is the identifier of the submitting account.
	SubmittedBy string `json:"submittedBy" db:"submitted_by"`

	// SubmittedAt is the timestamp when the return was received.
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`

	// Status is the review state of the return.
	Status Status `json:"status" db:"status"`

	// File describes an optional attachment. Its content lives in object storage.
	File *FileAttachment `json:"file,omitempty" db:"-"`
}

// ReturnTypeLabel renders the slug for display by replacing hyphens with spaces.
func (r ReturnRecord) ReturnTypeLabel() string {
	return strings.ReplaceAll(r.ReturnType, "-", " ")
}

// FileName returns the attachment name or "" when there is none.
func (r ReturnRecord) FileName() string {
	if r.File == nil {
		return ""
	}
	return r.File.Name
}

// FileAttachment is the metadata of a file attached to a return.
type FileAttachment struct {
	// Name is the original file name supplied by the client.
	Name string `json:"name" db:"file_name"`

	// MimeType is the content type reported by the client.
	MimeType string `json:"type" db:"file_mime_type"`

	// SizeBytes is the length of the stored content.
	SizeBytes int64 `json:"size" db:"file_size"`

	// ObjectKey locates the content in object storage.
	ObjectKey string `json:"-" db:"file_object_key"`
}

// Status represents the review state of a return.
type Status int

// Supported status values.
const (
	// StatusPending is set on every submission.
	StatusPending Status = iota

	// StatusReviewed is defined for completeness; no operation sets it yet.
	StatusReviewed
)

// String returns the lowercase status name used in API responses and exports.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReviewed:
		return "reviewed"
	default:
		return "unknown"
	}
}

// ParseStatus maps a stored status name back to a Status.
func ParseStatus(value string) Status {
	if strings.EqualFold(value, "reviewed") {
		return StatusReviewed
	}
	return StatusPending
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseStatus(name)
	return nil
}
