package qualify

import "regexp"

// Ruleset is the versioned configuration the classifier runs on. Keyword lists
// are data, not control flow: growing dialect coverage means editing a list
// here (or loading a different set), never touching the engine.
type Ruleset struct {
	// HighInterest forces follow-up when matched.
	HighInterest []string
	// ModerateInterest covers softer curiosity and price inquiries.
	ModerateInterest []string
	// Negative wins over everything else.
	Negative []string

	// SchedulePatterns are tried in order; the first match captures the
	// requested callback time in group 1.
	SchedulePatterns []*regexp.Regexp

	// MinConversationLength is the transcript length (in characters) above
	// which a signal-free call still counts as a real conversation.
	MinConversationLength int
}

var defaultSchedulePatterns = []*regexp.Regexp{
	regexp.MustCompile(`tomorrow at (\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`),
	regexp.MustCompile(`call (?:me )?(?:back )?at (\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`),
	regexp.MustCompile(`(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\s*(?:ku|la)?\s*call pannunga`),
}

// DefaultRuleset returns the built-in English + Tanglish rule table.
func DefaultRuleset() Ruleset {
	return Ruleset{
		HighInterest: []string{
			"very interested", "definitely", "sign me up", "let's do it",
			"schedule", "appointment", "meeting", "tomorrow", "next week",
			"call me back", "send details", "whatsapp",
			// Tamil / Tanglish
			"seri", "ok pa", "sure", "romba nalla iruku", "interested ah irukken",
		},
		ModerateInterest: []string{
			"interested", "tell me more", "sounds good", "maybe", "possibly",
			"how much", "price", "cost", "what is the rate",
			// Tamil / Tanglish
			"sollunga", "konjam yosikaren", "pakalaam",
		},
		Negative: []string{
			"not interested", "no thanks", "busy", "don't call", "stop calling",
			"wrong number", "remove my number", "do not call",
			// Tamil / Tanglish
			"venda", "time illa", "busy ah irukken", "call panna vendaam",
		},
		SchedulePatterns:      defaultSchedulePatterns,
		MinConversationLength: 100,
	}
}
