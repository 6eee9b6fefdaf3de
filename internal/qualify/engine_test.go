package qualify

import (
	"reflect"
	"strings"
	"testing"
)

func userTurn(text string) Turn { return Turn{Role: "user", Text: text} }

func TestClassify_NegativeKeywords(t *testing.T) {
	res := Classify([]Turn{userTurn("not interested, don't call")}, DefaultRuleset())
	if res.InterestLevel != InterestNotInterested {
		t.Fatalf("got %q, want Not Interested", res.InterestLevel)
	}
	if res.FollowUpRequired {
		t.Fatalf("negative classification must not require follow-up")
	}
	if res.Notes != "Lead declined or asked not to be called" {
		t.Fatalf("unexpected note %q", res.Notes)
	}
}

func TestClassify_NegativeBeatsHighInterest(t *testing.T) {
	// Priority invariant: refusal wins even next to strong affirmation.
	transcripts := []string{
		"very interested but actually not interested",
		"sign me up... wrong number sorry",
		"definitely, no wait, stop calling",
	}
	for _, tr := range transcripts {
		res := Classify([]Turn{userTurn(tr)}, DefaultRuleset())
		if res.InterestLevel != InterestNotInterested {
			t.Fatalf("Classify(%q) = %q, want Not Interested", tr, res.InterestLevel)
		}
	}
}

func TestClassify_ScheduledCallback(t *testing.T) {
	res := Classify([]Turn{userTurn("Sure, call me back at 5pm tomorrow")}, DefaultRuleset())
	if res.ScheduledTime != "5pm" {
		t.Fatalf("scheduledTime = %q, want 5pm", res.ScheduledTime)
	}
	if !res.FollowUpRequired {
		t.Fatalf("expected followUpRequired")
	}
	// "sure" and "call me back" are high-interest signals.
	if res.InterestLevel != InterestInterested {
		t.Fatalf("got %q, want Interested", res.InterestLevel)
	}
	if res.Notes != "Callback requested: 5pm" {
		t.Fatalf("scheduling note must win, got %q", res.Notes)
	}
}

func TestClassify_TanglishSchedulePattern(t *testing.T) {
	res := Classify([]Turn{userTurn("6:30pm ku call pannunga")}, DefaultRuleset())
	if res.ScheduledTime != "6:30pm" {
		t.Fatalf("scheduledTime = %q, want 6:30pm", res.ScheduledTime)
	}
	if !res.FollowUpRequired {
		t.Fatalf("expected followUpRequired")
	}
}

func TestClassify_ModerateInterest(t *testing.T) {
	res := Classify([]Turn{userTurn("hmm how much does it cost")}, DefaultRuleset())
	if res.InterestLevel != InterestInterested {
		t.Fatalf("got %q, want Interested", res.InterestLevel)
	}
	if res.FollowUpRequired {
		t.Fatalf("moderate interest must not force follow-up")
	}
	if res.Notes != "Moderate interest - may need nurturing" {
		t.Fatalf("unexpected note %q", res.Notes)
	}
}

func TestClassify_LongNeutralTranscriptIsContacted(t *testing.T) {
	// 150+ chars with no keyword at all.
	text := strings.Repeat("hello there. ", 15)
	res := Classify([]Turn{userTurn(text)}, DefaultRuleset())
	if res.InterestLevel != InterestContacted {
		t.Fatalf("got %q, want Contacted", res.InterestLevel)
	}
	if res.FollowUpRequired {
		t.Fatalf("neutral conversation must not require follow-up")
	}
	if res.Notes != "Call completed - needs review" {
		t.Fatalf("unexpected note %q", res.Notes)
	}
}

func TestClassify_ShortTranscriptFallback(t *testing.T) {
	res := Classify([]Turn{userTurn("hello?")}, DefaultRuleset())
	if res.InterestLevel != InterestContacted {
		t.Fatalf("got %q, want Contacted", res.InterestLevel)
	}
	if res.Notes != "Brief call - may have been missed/busy" {
		t.Fatalf("unexpected note %q", res.Notes)
	}
}

func TestClassify_SystemTurnsExcluded(t *testing.T) {
	turns := []Turn{
		{Role: "system", Text: "you are a sales agent, be very interested in the lead"},
		userTurn("hello?"),
	}
	res := Classify(turns, DefaultRuleset())
	if strings.Contains(res.Transcript, "sales agent") {
		t.Fatalf("system turn leaked into transcript")
	}
	if res.InterestLevel != InterestContacted {
		t.Fatalf("got %q, want Contacted", res.InterestLevel)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	turns := []Turn{
		{Role: "assistant", Text: "Hi, this is Ravi from VOCA Solar."},
		userTurn("seri, send details on whatsapp, call me back at 10am"),
	}
	first := Classify(turns, DefaultRuleset())
	for i := 0; i < 5; i++ {
		if got := Classify(turns, DefaultRuleset()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestClassify_EmptyTranscript(t *testing.T) {
	res := Classify(nil, DefaultRuleset())
	if res.InterestLevel != InterestContacted {
		t.Fatalf("got %q, want Contacted fallback", res.InterestLevel)
	}
	if res.Transcript != "" {
		t.Fatalf("expected empty transcript")
	}
}
