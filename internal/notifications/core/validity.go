package core

import (
	"casenotify/internal/types"
)

// ValidityGate decides whether an event applies to the case at all, before
// any recipient is considered. It combines the hearing-format policy flags,
// the upload-response state gate, and hearing staleness.
type ValidityGate struct {
	clock  types.Clock
	logger types.Logger
}

func NewValidityGate(clock types.Clock, logger types.Logger) *ValidityGate {
	return &ValidityGate{clock: clock, logger: logger}
}

// Allows reports whether the event should be dispatched for this case. A
// false return is a silent no-op for the caller, not an error.
func (g *ValidityGate) Allows(event types.EventType, snapshot *types.CaseSnapshot) bool {
	policy, known := event.Policy()
	if !known {
		return false
	}

	switch snapshot.HearingClassification() {
	case types.HearingOnline:
		if !policy.ValidForOnline {
			g.logger.Info("event not valid for online cases, skipping",
				"event", string(event), "case_id", snapshot.CaseID)
			return false
		}
	case types.HearingAttended:
		if !policy.ValidForAttended {
			return false
		}
	case types.HearingPaper:
		if !policy.ValidForPaper {
			g.logger.Info("event not valid for paper cases, skipping",
				"event", string(event), "case_id", snapshot.CaseID)
			return false
		}
	}

	if event == types.EventDwpUploadResponse && snapshot.CreatedFromState != types.StateReadyToList {
		g.logger.Info("upload response outside ready-to-list, skipping",
			"case_id", snapshot.CaseID, "created_from", string(snapshot.CreatedFromState))
		return false
	}

	return g.stillCurrent(event, snapshot)
}

// stillCurrent guards hearing-centric events against stale queue deliveries.
// A booking or reminder for a hearing already in the past says nothing useful.
func (g *ValidityGate) stillCurrent(event types.EventType, snapshot *types.CaseSnapshot) bool {
	switch event {
	case types.EventHearingBooked, types.EventHearingReminder:
	default:
		return true
	}

	hearing := snapshot.LatestHearing()
	if hearing == nil {
		g.logger.Warn("hearing event without a recorded hearing, skipping",
			"event", string(event), "case_id", snapshot.CaseID)
		return false
	}
	if !hearing.DateTime.After(g.clock.Now()) {
		g.logger.Info("hearing already in the past, skipping",
			"event", string(event), "case_id", snapshot.CaseID,
			"hearing_at", hearing.DateTime)
		return false
	}
	return true
}
