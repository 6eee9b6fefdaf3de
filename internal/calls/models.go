package calls

import "time"

// Record is one outbound call's lifecycle row.
//
// Invariants:
//   - ExternalCallID (the voice provider's call id), once set, never changes.
//   - Status moves ongoing -> {completed, missed, failed} exactly once;
//     never backward, never re-entered. Stores enforce this on update.
//   - Records are never deleted.
type Record struct {
	ID     string `json:"id" db:"id"`
	LeadID string `json:"lead_id,omitempty" db:"lead_id"`

	// ExternalCallID is issued by the voice provider; empty until dispatch
	// succeeds.
	ExternalCallID string `json:"ultravox_call_id,omitempty" db:"ultravox_call_id"`

	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DurationSeconds *int       `json:"duration_seconds,omitempty" db:"duration_seconds"`

	Status  Status `json:"status" db:"status"`
	Summary string `json:"summary,omitempty" db:"summary"`
}

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is an end state.
func Terminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusMissed, StatusFailed:
		return true
	default:
		return false
	}
}

// Completion is the terminal update applied once when a call ends.
type Completion struct {
	EndedAt         time.Time
	DurationSeconds int
	Status          Status
	Summary         string
}

// HistoryItem is a call record joined with its lead for the dashboard's
// call-history view.
type HistoryItem struct {
	Record
	LeadName     string `json:"lead_name,omitempty" db:"lead_name"`
	LeadBusiness string `json:"lead_business,omitempty" db:"lead_business"`
}
