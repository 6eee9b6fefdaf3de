package telephony

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoActiveCall means no in-flight leg matched the target number. This is a
// normal outcome, not an exception: the call may have already ended naturally.
var ErrNoActiveCall = errors.New("telephony: no active call found")

// terminationStatuses is the search priority order. The operator may want to
// cancel a call while it is still ringing or queued, not just mid-conversation.
var terminationStatuses = []string{StatusInProgress, StatusRinging, StatusQueued}

const terminationPageSize = 20

// Terminator locates an in-flight call leg by destination number and forces it
// to end. It does not touch persisted state; finalizing the call record is the
// caller's job.
type Terminator struct {
	legs LegLister
	log  *slog.Logger
}

func NewTerminator(legs LegLister, log *slog.Logger) *Terminator {
	if log == nil {
		log = slog.Default()
	}
	return &Terminator{legs: legs, log: log}
}

// EndByPhoneNumber searches the provider's call list status by status and hangs
// up the first leg whose To or From matches the target number. Returns the
// terminated leg's SID, or ErrNoActiveCall when nothing matched.
func (t *Terminator) EndByPhoneNumber(ctx context.Context, phoneNumber string) (string, error) {
	if phoneNumber == "" {
		return "", ErrNoActiveCall
	}

	for _, status := range terminationStatuses {
		legs, err := t.legs.ListCalls(ctx, status, terminationPageSize)
		if err != nil {
			return "", err
		}
		for _, leg := range legs {
			if leg.To != phoneNumber && leg.From != phoneNumber {
				continue
			}
			t.log.Info("terminating call leg", "sid", leg.SID, "status", status, "to", leg.To)
			if err := t.legs.CompleteCall(ctx, leg.SID); err != nil {
				return "", err
			}
			return leg.SID, nil
		}
	}

	t.log.Info("no active call leg found", "phone", phoneNumber)
	return "", ErrNoActiveCall
}
