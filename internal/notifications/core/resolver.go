package core

import (
	"casenotify/internal/types"
)

// appointeeEvents lists the events for which an appointee, when one holds a
// subscription (or the event posts a mandatory letter), supersedes the
// appellant as the recipient of that group's notification.
var appointeeEvents = map[types.EventType]bool{
	types.EventAppealCreated:              true,
	types.EventValidAppealCreated:         true,
	types.EventResendAppealCreated:        true,
	types.EventAppealReceived:             true,
	types.EventAppealLapsed:               true,
	types.EventHmctsAppealLapsed:          true,
	types.EventDwpAppealLapsed:            true,
	types.EventAppealWithdrawn:            true,
	types.EventAdminAppealWithdrawn:       true,
	types.EventAppealDormant:              true,
	types.EventAdjourned:                  true,
	types.EventDwpResponseReceived:        true,
	types.EventDwpUploadResponse:          true,
	types.EventEvidenceReceived:           true,
	types.EventEvidenceReminder:           true,
	types.EventHearingBooked:              true,
	types.EventHearingReminder:            true,
	types.EventPostponement:               true,
	types.EventSubscriptionUpdated:        true,
	types.EventStruckOut:                  true,
	types.EventDirectionIssued:            true,
	types.EventDecisionIssued:             true,
	types.EventIssueFinalDecision:         true,
	types.EventIssueAdjournmentNotice:     true,
	types.EventNonCompliant:               true,
	types.EventRequestInfoIncomplete:      true,
	types.EventJointPartyAdded:            true,
	types.EventJudgeDecisionAppealToProceed: true,
	types.EventTcwDecisionAppealToProceed:   true,
	types.EventProcessAudioVideo:          true,
}

// representativeEvents lists the events routed to a case representative.
var representativeEvents = map[types.EventType]bool{
	types.EventAppealCreated:              true,
	types.EventResendAppealCreated:        true,
	types.EventAppealReceived:             true,
	types.EventAppealLapsed:               true,
	types.EventHmctsAppealLapsed:          true,
	types.EventDwpAppealLapsed:            true,
	types.EventAppealWithdrawn:            true,
	types.EventAdminAppealWithdrawn:       true,
	types.EventAppealDormant:              true,
	types.EventAdjourned:                  true,
	types.EventDwpResponseReceived:        true,
	types.EventDwpUploadResponse:          true,
	types.EventEvidenceReceived:           true,
	types.EventEvidenceReminder:           true,
	types.EventHearingBooked:              true,
	types.EventHearingReminder:            true,
	types.EventPostponement:               true,
	types.EventSubscriptionUpdated:        true,
	types.EventCaseUpdated:                true,
	types.EventStruckOut:                  true,
	types.EventDirectionIssued:            true,
	types.EventDecisionIssued:             true,
	types.EventIssueFinalDecision:         true,
	types.EventIssueAdjournmentNotice:     true,
	types.EventNonCompliant:               true,
	types.EventRequestInfoIncomplete:      true,
	types.EventValidAppealCreated:         true,
	types.EventInterlocValidAppeal:        true,
	types.EventJudgeDecisionAppealToProceed: true,
	types.EventTcwDecisionAppealToProceed:   true,
	types.EventProcessAudioVideo:          true,
}

// jointPartyEvents lists the events routed to a joint party once one exists on
// the case. The confidentiality review event is handled separately because it
// is gated on an outcome change rather than plain membership.
var jointPartyEvents = map[types.EventType]bool{
	types.EventAppealLapsed:           true,
	types.EventAppealWithdrawn:        true,
	types.EventAdminAppealWithdrawn:   true,
	types.EventAppealDormant:          true,
	types.EventAdjourned:              true,
	types.EventDwpUploadResponse:      true,
	types.EventEvidenceReceived:       true,
	types.EventEvidenceReminder:       true,
	types.EventHearingBooked:          true,
	types.EventHearingReminder:        true,
	types.EventPostponement:           true,
	types.EventStruckOut:              true,
	types.EventDirectionIssued:        true,
	types.EventIssueAdjournmentNotice: true,
	types.EventRequestInfoIncomplete:  true,
	types.EventJointPartyAdded:        true,
	types.EventProcessAudioVideo:      true,
}

// Resolver turns a resolved event plus the case snapshots into the ordered
// candidate list the dispatcher works through. Resolution is pure: it never
// mutates the snapshots and never performs I/O.
type Resolver struct {
	logger types.Logger
}

func NewResolver(logger types.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve computes the recipients for one event. Candidates come out in a
// fixed order (appellant group, representative, joint party) so dispatch is
// deterministic. An event unknown to the policy table yields no candidates.
func (r *Resolver) Resolve(event types.ResolvedEvent, latest, previous *types.CaseSnapshot) []Candidate {
	if _, known := event.Type.Policy(); !known {
		return nil
	}

	var out []Candidate

	if c, ok := r.appellantGroup(event, latest, previous); ok {
		out = append(out, c)
	}
	if c, ok := r.representative(event, latest); ok {
		out = append(out, c)
	}
	if c, ok := r.jointParty(event, latest, previous); ok {
		out = append(out, c)
	}

	return out
}

// appellantGroup resolves the appellant/appointee slot. An appointee with a
// live subscription supersedes the appellant; both never appear for one event.
func (r *Resolver) appellantGroup(event types.ResolvedEvent, latest, previous *types.CaseSnapshot) (Candidate, bool) {
	if event.WasRemapped() && !latest.ResendToAppellant {
		return Candidate{}, false
	}

	if event.Type == types.EventReviewConfidentiality {
		if !confidentialityOutcomeChanged(previousOutcome(previous, types.RoleAppellant), latest.ConfidentialityOutcomeAppellant) {
			return Candidate{}, false
		}
		return Candidate{Role: types.RoleAppellant, Subscription: latest.Subscriptions.Appellant}, true
	}

	appointee := latest.Subscriptions.Appointee
	if appointeeEvents[event.Type] && (hasLiveSubscription(appointee) || event.Type.IsMandatoryLetter()) {
		return Candidate{Role: types.RoleAppointee, Subscription: appointee}, true
	}

	return Candidate{Role: types.RoleAppellant, Subscription: latest.Subscriptions.Appellant}, true
}

// representative resolves the representative slot. The party must exist on the
// case, and must either hold a subscription or be owed a mandatory or fallback
// letter for the event.
func (r *Resolver) representative(event types.ResolvedEvent, latest *types.CaseSnapshot) (Candidate, bool) {
	if latest.Representative == nil {
		return Candidate{}, false
	}
	if event.WasRemapped() && !latest.ResendToRepresentative {
		return Candidate{}, false
	}
	if !representativeEvents[event.Type] {
		return Candidate{}, false
	}

	sub := latest.Subscriptions.Representative
	if !hasLiveSubscription(sub) && !event.Type.IsMandatoryLetter() && !event.Type.IsFallbackLetterEligible() {
		return Candidate{}, false
	}

	return Candidate{Role: types.RoleRepresentative, Subscription: sub}, true
}

// jointParty resolves the joint-party slot, mirroring the appellant rules plus
// the confidentiality-change gate against the joint party's own outcome.
func (r *Resolver) jointParty(event types.ResolvedEvent, latest, previous *types.CaseSnapshot) (Candidate, bool) {
	if latest.JointParty == nil {
		return Candidate{}, false
	}

	if event.Type == types.EventReviewConfidentiality {
		if !confidentialityOutcomeChanged(previousOutcome(previous, types.RoleJointParty), latest.ConfidentialityOutcomeJointParty) {
			return Candidate{}, false
		}
		return Candidate{Role: types.RoleJointParty, Subscription: latest.Subscriptions.JointParty}, true
	}

	if !jointPartyEvents[event.Type] {
		return Candidate{}, false
	}

	sub := latest.Subscriptions.JointParty
	if !hasLiveSubscription(sub) && !event.Type.IsMandatoryLetter() && !event.Type.IsFallbackLetterEligible() {
		return Candidate{}, false
	}

	return Candidate{Role: types.RoleJointParty, Subscription: sub}, true
}

// hasLiveSubscription reports whether the subscription exists and carries any
// contact detail or opt-in. A nil or fully empty subscription does not count.
func hasLiveSubscription(s *types.Subscription) bool {
	if s == nil {
		return false
	}
	return s.SubscribeEmail || s.SubscribeSMS || s.Email != "" || s.Mobile != ""
}

// previousOutcome returns the role's confidentiality outcome from the prior
// snapshot, tolerating a missing snapshot on first-event cases.
func previousOutcome(previous *types.CaseSnapshot, role types.PartyRole) *types.DatedRequestOutcome {
	if previous == nil {
		return nil
	}
	if role == types.RoleJointParty {
		return previous.ConfidentialityOutcomeJointParty
	}
	return previous.ConfidentialityOutcomeAppellant
}

// confidentialityOutcomeChanged reports whether a granted or refused decision
// is newly present compared to the prior snapshot. A review that records no
// decision, or repeats the prior one, fires nothing.
func confidentialityOutcomeChanged(prev, latest *types.DatedRequestOutcome) bool {
	if latest == nil {
		return false
	}
	switch latest.Outcome {
	case types.OutcomeGranted:
		return !prev.Matches(types.OutcomeGranted)
	case types.OutcomeRefused:
		return !prev.Matches(types.OutcomeRefused)
	}
	return false
}
