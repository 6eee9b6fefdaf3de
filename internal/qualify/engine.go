// Package qualify classifies a finished call's transcript into a lead interest
// level using a deterministic keyword/pattern rule table. There is no model
// behind this: same transcript in, same result out, always.
package qualify

import "strings"

// Turn is one utterance of the call transcript.
type Turn struct {
	Role string `json:"role"` // user, assistant or system
	Text string `json:"text"`
}

// Interest levels map directly onto lead pipeline statuses.
const (
	InterestUnknown       = "unknown"
	InterestNotInterested = "Not Interested"
	InterestInterested    = "Interested"
	InterestContacted     = "Contacted"
)

// Result is the qualification outcome for one completed call. It is ephemeral:
// consumed to update the lead and the call record, never stored on its own.
type Result struct {
	Transcript       string `json:"transcript"`
	InterestLevel    string `json:"interestLevel"`
	FollowUpRequired bool   `json:"followUpRequired"`
	ScheduledTime    string `json:"scheduledTime,omitempty"`
	Notes            string `json:"notes"`
}

// Classify runs the rule table over the transcript turns.
//
// Priority is fixed: a negative keyword beats high interest beats moderate
// interest beats the length-based fallback. Scheduling extraction runs first
// and independently; it sets the note, which later branches then leave alone.
func Classify(turns []Turn, rules Ruleset) Result {
	transcript := flatten(turns)
	lower := strings.ToLower(transcript)

	out := Result{
		Transcript:    transcript,
		InterestLevel: InterestUnknown,
	}

	for _, p := range rules.SchedulePatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			out.ScheduledTime = strings.TrimSpace(m[1])
			out.FollowUpRequired = true
			out.Notes = "Callback requested: " + out.ScheduledTime
			break
		}
	}

	switch {
	case containsAny(lower, rules.Negative):
		out.InterestLevel = InterestNotInterested
		setNote(&out, "Lead declined or asked not to be called")
	case containsAny(lower, rules.HighInterest):
		out.InterestLevel = InterestInterested
		out.FollowUpRequired = true
		setNote(&out, "High interest - schedule follow-up")
	case containsAny(lower, rules.ModerateInterest):
		out.InterestLevel = InterestInterested
		setNote(&out, "Moderate interest - may need nurturing")
	case len(transcript) > rules.MinConversationLength:
		// A real conversation happened without a clear signal.
		out.InterestLevel = InterestContacted
		setNote(&out, "Call completed - needs review")
	default:
		out.InterestLevel = InterestContacted
		setNote(&out, "Brief call - may have been missed/busy")
	}

	return out
}

// flatten joins user and assistant turns into "role: text" lines. System turns
// carry the prompt, not the conversation, and are excluded.
func flatten(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role != "user" && t.Role != "assistant" {
			continue
		}
		lines = append(lines, t.Role+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func setNote(r *Result, note string) {
	if r.Notes == "" {
		r.Notes = note
	}
}
