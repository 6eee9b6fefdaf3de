package dialer

import (
	"context"
	"errors"
	"fmt"

	"voca-platform/internal/calls"
	"voca-platform/internal/leads"
	"voca-platform/internal/qualify"
)

// CallEndedEvent is the provider's end-of-call notification.
type CallEndedEvent struct {
	CallID          string
	EndReason       string
	DurationSeconds int
}

const summaryMaxLen = 500

// truncateRunes caps s at max characters. Transcripts carry Tamil script, so
// cutting on a byte offset could leave invalid UTF-8 in the stored summary.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// CompleteCall drives the post-call pipeline: fetch transcript, qualify,
// finalize the call record, update the lead.
//
// Persistence failures past the transcript fetch are logged and swallowed so
// the provider does not redeliver a webhook whose work is already done.
// Redelivery of the same event is harmless: the record's terminal transition
// applies once, and a delivery that loses it stops before the lead update
// and the lock release.
func (s *Service) CompleteCall(ctx context.Context, ev CallEndedEvent) error {
	if ev.CallID == "" {
		return errors.New("dialer: call id is required")
	}
	s.log.Info("call ended", "call_id", ev.CallID, "reason", ev.EndReason, "duration_s", ev.DurationSeconds)

	// A vanished call upstream yields an empty transcript, not a failure.
	turns, err := s.uv.GetMessages(ctx, ev.CallID)
	if err != nil {
		return fmt.Errorf("dialer: fetch transcript: %w", err)
	}

	result := qualify.Classify(turns, s.rules)
	s.log.Info("transcript qualified", "call_id", ev.CallID, "interest", result.InterestLevel, "follow_up", result.FollowUpRequired)

	rec, err := s.calls.GetByExternalID(ctx, ev.CallID)
	if err != nil {
		// Unknown or unreadable call record: nothing local to update, and the
		// provider must not keep retrying over it.
		s.log.Warn("no call record for ended call", "call_id", ev.CallID, "err", err)
		return nil
	}

	summary := truncateRunes(result.Transcript, summaryMaxLen)
	if summary == "" {
		summary = "Call completed"
	}

	err = s.calls.Complete(ctx, rec.ID, calls.Completion{
		EndedAt:         s.clock().UTC(),
		DurationSeconds: ev.DurationSeconds,
		Status:          calls.StatusCompleted,
		Summary:         summary,
	})
	switch {
	case errors.Is(err, calls.ErrAlreadyFinal):
		// An earlier delivery (or a manual finalize) already did the work,
		// including the lead update and the lock release. Releasing again
		// here would free a lock a newer call for the same lead now holds.
		s.log.Debug("call record already finalized", "call_id", ev.CallID)
		return nil
	case err != nil:
		s.log.Error("call record update failed", "call_id", ev.CallID, "err", err)
	}

	if rec.LeadID != "" && result.InterestLevel != qualify.InterestUnknown {
		notes := result.Notes
		if notes == "" {
			notes = "Call completed. Interest: " + result.InterestLevel
		}
		if err := s.leads.UpdateQualification(ctx, rec.LeadID, leads.Status(result.InterestLevel), notes); err != nil {
			s.log.Error("lead qualification update failed", "lead_id", rec.LeadID, "err", err)
		} else {
			s.log.Info("lead status updated", "lead_id", rec.LeadID, "status", result.InterestLevel)
		}
	}

	s.unlock(ctx, rec.LeadID)
	return nil
}

// FinalizeManual closes a call record after an operator-initiated hangup.
// Termination at the telephony layer is advisory, so the client that asked
// for it finalizes defensively; if the provider's webhook already did the
// work this is a no-op.
func (s *Service) FinalizeManual(ctx context.Context, recordID, note string) error {
	rec, err := s.calls.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if note == "" {
		note = "Call ended manually by operator"
	}

	now := s.clock().UTC()
	duration := 0
	if now.After(rec.StartedAt) {
		duration = int(now.Sub(rec.StartedAt).Seconds())
	}

	err = s.calls.Complete(ctx, rec.ID, calls.Completion{
		EndedAt:         now,
		DurationSeconds: duration,
		Status:          calls.StatusCompleted,
		Summary:         note,
	})
	if errors.Is(err, calls.ErrAlreadyFinal) {
		return nil
	}
	if err != nil {
		return err
	}

	s.unlock(ctx, rec.LeadID)
	return nil
}
