package leads

import "time"

// Lead is a prospective customer with a pipeline status. Lead capture flows
// (maps search, manual entry, CSV upload) create these; the qualification
// engine mutates Status and Notes after a call completes.
type Lead struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	BusinessName string `json:"business_name" db:"business_name"`
	Address      string `json:"address,omitempty" db:"address"`
	Phone        string `json:"phone" db:"phone"`
	Email        string `json:"email" db:"email"`

	Status Status `json:"status" db:"status"`
	Notes  string `json:"notes,omitempty" db:"notes"`
	Source Source `json:"source,omitempty" db:"source"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusNew           Status = "New"
	StatusContacted     Status = "Contacted"
	StatusInterested    Status = "Interested"
	StatusNotInterested Status = "Not Interested"
	StatusScheduled     Status = "Scheduled"
)

// ValidStatus reports whether s is one of the pipeline statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusContacted, StatusInterested, StatusNotInterested, StatusScheduled:
		return true
	default:
		return false
	}
}

type Source string

const (
	SourceMaps   Source = "Maps"
	SourceManual Source = "Manual"
	SourceUpload Source = "Upload"
)
