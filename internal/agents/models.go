package agents

import (
	"strings"
	"time"
)

// Persona is a named agent configuration applied to an outbound call. It is
// selected per call and immutable while the call runs.
type Persona struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Tone Tone   `json:"tone" db:"tone"`

	// Script is the system-prompt template. It may contain {customer_name}
	// and {business_name} placeholders filled in at dispatch time.
	Script string `json:"script" db:"script"`

	VoiceID    string  `json:"voice_id" db:"voice_id"`
	VoiceSpeed float64 `json:"voice_speed" db:"voice_speed"`

	// LanguageStyle is a free-form dialect/register hint, e.g. "Tanglish".
	LanguageStyle string `json:"language_style,omitempty" db:"language_style"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Tone string

const (
	ToneFriendly     Tone = "Friendly"
	ToneProfessional Tone = "Professional"
	ToneAssertive    Tone = "Assertive"
)

const DefaultVoiceSpeed = 1.0

// RenderScript substitutes the lead's contact and business names into the
// persona's script template. Empty values substitute as empty strings, same
// as the dashboard behaves.
func (p Persona) RenderScript(leadName, businessName string) string {
	out := strings.ReplaceAll(p.Script, "{customer_name}", leadName)
	out = strings.ReplaceAll(out, "{business_name}", businessName)
	return out
}
