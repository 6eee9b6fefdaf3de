package dialer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"voca-platform/internal/calls"
	"voca-platform/internal/leads"
	"voca-platform/internal/qualify"
	"voca-platform/internal/ultravox"
)

func dispatched(t *testing.T, f *fixture) calls.Record {
	t.Helper()
	res, err := f.svc.Dispatch(context.Background(), DispatchRequest{PhoneNumber: "9876543210", LeadID: "l1"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	rec, err := f.calls.GetByID(context.Background(), res.RecordID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return rec
}

func TestCompleteCall_QualifiesAndUpdatesLead(t *testing.T) {
	f := newFixture(t)
	f.leads.Put(leads.Lead{ID: "l1", Name: "Priya", Status: leads.StatusNew})
	rec := dispatched(t, f)

	f.uv.turns = []qualify.Turn{
		{Role: "assistant", Text: "Hi, calling from VOCA Solar."},
		{Role: "user", Text: "not interested, don't call"},
	}

	err := f.svc.CompleteCall(context.Background(), CallEndedEvent{
		CallID: "uv-1", EndReason: "hangup", DurationSeconds: 48,
	})
	if err != nil {
		t.Fatalf("CompleteCall: %v", err)
	}

	got, _ := f.calls.GetByID(context.Background(), rec.ID)
	if got.Status != calls.StatusCompleted {
		t.Fatalf("status = %q", got.Status)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 48 {
		t.Fatalf("duration = %v", got.DurationSeconds)
	}
	if !strings.Contains(got.Summary, "not interested") {
		t.Fatalf("summary must hold the transcript excerpt, got %q", got.Summary)
	}

	lead, _ := f.leads.GetByID(context.Background(), "l1")
	if lead.Status != leads.StatusNotInterested {
		t.Fatalf("lead status = %q", lead.Status)
	}
	if lead.Notes != "Lead declined or asked not to be called" {
		t.Fatalf("lead notes = %q", lead.Notes)
	}
	if len(f.locks.released) != 1 || f.locks.released[0] != "l1" {
		t.Fatalf("lead lock must be released after completion: %+v", f.locks)
	}
}

func TestCompleteCall_SummaryTruncatedTo500(t *testing.T) {
	f := newFixture(t)
	rec := dispatched(t, f)

	f.uv.turns = []qualify.Turn{{Role: "user", Text: strings.Repeat("z", 1000)}}
	if err := f.svc.CompleteCall(context.Background(), CallEndedEvent{CallID: "uv-1"}); err != nil {
		t.Fatalf("CompleteCall: %v", err)
	}
	got, _ := f.calls.GetByID(context.Background(), rec.ID)
	if len(got.Summary) != 500 {
		t.Fatalf("summary length = %d", len(got.Summary))
	}
}

func TestCompleteCall_SummaryTruncationKeepsRunesIntact(t *testing.T) {
	f := newFixture(t)
	rec := dispatched(t, f)

	// Tamil text: every rune is multi-byte, so a byte-offset cut would leave
	// a broken rune at the end of the summary.
	f.uv.turns = []qualify.Turn{{Role: "user", Text: strings.Repeat("வணக்கம்", 100)}}
	if err := f.svc.CompleteCall(context.Background(), CallEndedEvent{CallID: "uv-1"}); err != nil {
		t.Fatalf("CompleteCall: %v", err)
	}
	got, _ := f.calls.GetByID(context.Background(), rec.ID)
	if !utf8.ValidString(got.Summary) {
		t.Fatalf("summary holds invalid UTF-8: %q", got.Summary)
	}
	if n := utf8.RuneCountInString(got.Summary); n != 500 {
		t.Fatalf("summary rune count = %d", n)
	}
}

func TestCompleteCall_EmptyTranscriptFallbackSummary(t *testing.T) {
	f := newFixture(t)
	rec := dispatched(t, f)

	if err := f.svc.CompleteCall(context.Background(), CallEndedEvent{CallID: "uv-1", DurationSeconds: 3}); err != nil {
		t.Fatalf("CompleteCall: %v", err)
	}
	got, _ := f.calls.GetByID(context.Background(), rec.ID)
	if got.Summary != "Call completed" {
		t.Fatalf("summary = %q", got.Summary)
	}
	// Short inconclusive transcript still marks the lead contacted.
	if lead, err := f.leads.GetByID(context.Background(), "l1"); err == nil {
		t.Fatalf("lead must not exist in this fixture, got %+v", lead)
	}
}

func TestCompleteCall_UnknownCallIDIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.leads.Put(leads.Lead{ID: "l1", Status: leads.StatusNew, Notes: "untouched"})

	err := f.svc.CompleteCall(context.Background(), CallEndedEvent{CallID: "never-seen"})
	if err != nil {
		t.Fatalf("unknown call id must complete without error, got %v", err)
	}
	lead, _ := f.leads.GetByID(context.Background(), "l1")
	if lead.Status != leads.StatusNew || lead.Notes != "untouched" {
		t.Fatalf("lead mutated by unknown webhook: %+v", lead)
	}
}

func TestCompleteCall_RedeliveryIsHarmless(t *testing.T) {
	f := newFixture(t)
	f.leads.Put(leads.Lead{ID: "l1", Status: leads.StatusNew})
	rec := dispatched(t, f)

	f.uv.turns = []qualify.Turn{{Role: "user", Text: "sounds good, tell me more"}}
	ev := CallEndedEvent{CallID: "uv-1", DurationSeconds: 90}
	if err := f.svc.CompleteCall(context.Background(), ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.svc.CompleteCall(context.Background(), ev); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	got, _ := f.calls.GetByID(context.Background(), rec.ID)
	if got.Status != calls.StatusCompleted || *got.DurationSeconds != 90 {
		t.Fatalf("record corrupted by redelivery: %+v", got)
	}
	lead, _ := f.leads.GetByID(context.Background(), "l1")
	if lead.Status != leads.StatusInterested {
		t.Fatalf("lead status = %q", lead.Status)
	}
	// One acquire, one release. A second release would free the slot a newer
	// call for the same lead may have acquired in the meantime.
	if len(f.locks.acquired) != 1 || len(f.locks.released) != 1 {
		t.Fatalf("lock must be released exactly once: %+v", f.locks)
	}
}

func TestCompleteCall_RedeliveryDoesNotFreeSuccessorLock(t *testing.T) {
	f := newFixture(t)
	f.leads.Put(leads.Lead{ID: "l1", Status: leads.StatusNew})
	dispatched(t, f)

	ev := CallEndedEvent{CallID: "uv-1", DurationSeconds: 10}
	if err := f.svc.CompleteCall(context.Background(), ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// A new call for the same lead starts and holds the lock when the first
	// call's webhook is redelivered.
	f.uv.created = ultravox.CallCreated{CallID: "uv-2", JoinURL: "https://join/y"}
	if _, err := f.svc.Dispatch(context.Background(), DispatchRequest{PhoneNumber: "9876543210", LeadID: "l1"}); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if err := f.svc.CompleteCall(context.Background(), ev); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if len(f.locks.acquired) != 2 || len(f.locks.released) != 1 {
		t.Fatalf("redelivery must not release the successor's lock: %+v", f.locks)
	}
}

func TestCompleteCall_TranscriptFetchFailurePropagates(t *testing.T) {
	f := newFixture(t)
	dispatched(t, f)

	f.uv.msgErr = &ultravox.APIError{Status: 500, Body: "boom"}
	err := f.svc.CompleteCall(context.Background(), CallEndedEvent{CallID: "uv-1"})
	if err == nil {
		t.Fatalf("hard transcript failure must propagate so the provider retries")
	}
}

func TestFinalizeManual(t *testing.T) {
	f := newFixture(t)
	rec := dispatched(t, f)

	f.svc.clock = func() time.Time { return rec.StartedAt.Add(95 * time.Second) }
	if err := f.svc.FinalizeManual(context.Background(), rec.ID, ""); err != nil {
		t.Fatalf("FinalizeManual: %v", err)
	}

	got, _ := f.calls.GetByID(context.Background(), rec.ID)
	if got.Status != calls.StatusCompleted {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Summary != "Call ended manually by operator" {
		t.Fatalf("summary = %q", got.Summary)
	}
	if *got.DurationSeconds != 95 {
		t.Fatalf("duration = %d", *got.DurationSeconds)
	}
	if len(f.locks.released) != 1 {
		t.Fatalf("lead lock must be released on manual finalize")
	}

	// Finalizing again, or racing the webhook, is a no-op.
	if err := f.svc.FinalizeManual(context.Background(), rec.ID, "again"); err != nil {
		t.Fatalf("second finalize must be a no-op, got %v", err)
	}
	got, _ = f.calls.GetByID(context.Background(), rec.ID)
	if got.Summary != "Call ended manually by operator" {
		t.Fatalf("first terminal update must stand, got %q", got.Summary)
	}
}

func TestFinalizeManual_UnknownRecord(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.FinalizeManual(context.Background(), "nope", ""); !errors.Is(err, calls.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
