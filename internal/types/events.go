package types

import "fmt"

// EventType is a case lifecycle trigger. The string value is the event id
// used on the wire by the case-management platform.
type EventType string

const (
	EventAppealCreated                EventType = "appealCreated"
	EventValidAppealCreated           EventType = "validAppealCreated"
	EventResendAppealCreated          EventType = "resendAppealCreated"
	EventAppealReceived               EventType = "appealReceived"
	EventAppealLapsed                 EventType = "appealLapsed"
	EventHmctsAppealLapsed            EventType = "hmctsAppealLapsed"
	EventDwpAppealLapsed              EventType = "dwpAppealLapsed"
	EventAppealWithdrawn              EventType = "appealWithdrawn"
	EventAdminAppealWithdrawn         EventType = "adminAppealWithdrawn"
	EventAppealDormant                EventType = "appealDormant"
	EventAdjourned                    EventType = "hearingAdjourned"
	EventDwpResponseReceived          EventType = "responseReceived"
	EventDwpUploadResponse            EventType = "dwpUploadResponse"
	EventEvidenceReceived             EventType = "evidenceReceived"
	EventEvidenceReminder             EventType = "evidenceReminder"
	EventHearingBooked                EventType = "hearingBooked"
	EventHearingReminder              EventType = "hearingReminder"
	EventPostponement                 EventType = "hearingPostponed"
	EventSubscriptionCreated          EventType = "subscriptionCreated"
	EventSubscriptionUpdated          EventType = "subscriptionUpdated"
	EventSubscriptionOld              EventType = "subscriptionOld"
	EventStruckOut                    EventType = "struckOut"
	EventDirectionIssued              EventType = "directionIssued"
	EventDecisionIssued               EventType = "decisionIssued"
	EventIssueFinalDecision           EventType = "issueFinalDecision"
	EventIssueAdjournmentNotice       EventType = "issueAdjournmentNotice"
	EventNonCompliant                 EventType = "nonCompliant"
	EventRequestInfoIncomplete        EventType = "requestInfoIncomplete"
	EventJointPartyAdded              EventType = "jointPartyAdded"
	EventReviewConfidentiality        EventType = "reviewConfidentialityRequest"
	EventCaseUpdated                  EventType = "caseUpdated"
	EventInterlocValidAppeal          EventType = "interlocValidAppeal"
	EventJudgeDecisionAppealToProceed EventType = "judgeDecisionAppealToProceed"
	EventTcwDecisionAppealToProceed   EventType = "tcwDecisionAppealToProceed"
	EventProcessAudioVideo            EventType = "processAudioVideo"

	// Raw trigger types that are remapped to a concrete EventType before any
	// recipient resolution. They never reach the resolver themselves.
	EventReissueDocument           EventType = "reissueDocument"
	EventDraftToValidAppealCreated EventType = "draftToValidAppealCreated"
	EventDraftToNonCompliant       EventType = "draftToNonCompliant"
)

// EventPolicy holds the static routing and timing flags attached to an
// EventType. The table is built once at package init and never mutated, so
// eligibility is diffable data rather than inline branching.
type EventPolicy struct {
	// AllowOutOfHours marks the event as time-insensitive: it may be sent
	// outside the business-hours window without deferral.
	AllowOutOfHours bool

	// ValidForAttended / ValidForPaper / ValidForOnline gate the event on the
	// case's hearing classification.
	ValidForAttended bool
	ValidForPaper    bool
	ValidForOnline   bool
}

// eventPolicies is the full policy table. An event absent from this table is
// unknown to the engine and resolves to an empty candidate list downstream.
var eventPolicies = map[EventType]EventPolicy{
	EventAppealCreated:       {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventValidAppealCreated:  {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventResendAppealCreated: {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventAppealReceived:      {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventAppealLapsed:        {ValidForAttended: true, ValidForPaper: true},
	EventHmctsAppealLapsed:   {ValidForAttended: true, ValidForPaper: true},
	EventDwpAppealLapsed:     {ValidForAttended: true, ValidForPaper: true},
	EventAppealWithdrawn:     {ValidForAttended: true, ValidForPaper: true},
	EventAdminAppealWithdrawn: {ValidForAttended: true, ValidForPaper: true},
	EventAppealDormant:       {ValidForAttended: true, ValidForPaper: true},
	EventAdjourned:           {ValidForAttended: true},
	EventDwpResponseReceived: {ValidForAttended: true, ValidForPaper: true},
	EventDwpUploadResponse:   {ValidForAttended: true, ValidForPaper: true},
	EventEvidenceReceived:    {ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventEvidenceReminder:    {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true},
	EventHearingBooked:       {ValidForAttended: true},
	EventHearingReminder:     {AllowOutOfHours: true, ValidForAttended: true},
	EventPostponement:        {ValidForAttended: true},
	EventSubscriptionCreated: {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventSubscriptionUpdated: {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventSubscriptionOld:     {AllowOutOfHours: true, ValidForAttended: true, ValidForPaper: true, ValidForOnline: true},
	EventStruckOut:           {ValidForAttended: true, ValidForPaper: true},
	EventDirectionIssued:     {ValidForAttended: true, ValidForPaper: true},
	EventDecisionIssued:      {ValidForAttended: true, ValidForPaper: true},
	EventIssueFinalDecision:  {ValidForAttended: true, ValidForPaper: true},
	EventIssueAdjournmentNotice: {ValidForAttended: true, ValidForPaper: true},
	EventNonCompliant:        {ValidForAttended: true, ValidForPaper: true},
	EventRequestInfoIncomplete: {ValidForAttended: true, ValidForPaper: true},
	EventJointPartyAdded:     {ValidForAttended: true, ValidForPaper: true},
	EventReviewConfidentiality: {ValidForAttended: true, ValidForPaper: true},
	EventCaseUpdated:         {ValidForAttended: true, ValidForPaper: true},
	EventInterlocValidAppeal: {ValidForAttended: true, ValidForPaper: true},
	EventJudgeDecisionAppealToProceed: {ValidForAttended: true, ValidForPaper: true},
	EventTcwDecisionAppealToProceed:   {ValidForAttended: true, ValidForPaper: true},
	EventProcessAudioVideo:   {ValidForAttended: true, ValidForPaper: true},
}

// The mandatory-letter and fallback-letter lists are maintained separately on
// purpose: an event appearing in both is suspicious and surfaced by
// OverlappingLetterEvents rather than silently merged.
var (
	mandatoryLetterEvents = map[EventType]bool{
		EventStruckOut: true,
	}
	fallbackLetterEvents = map[EventType]bool{
		EventInterlocValidAppeal: true,
		EventHearingBooked:       true,
	}
	bundledLetterEvents = map[EventType]bool{
		EventStruckOut: true,
	}
)

// Policy returns the static flags for the event and whether the event is
// known to the engine.
func (e EventType) Policy() (EventPolicy, bool) {
	p, ok := eventPolicies[e]
	return p, ok
}

// AllowOutOfHours reports whether the event may be dispatched outside the
// business-hours window. Unknown events are not out-of-hours exempt.
func (e EventType) AllowOutOfHours() bool {
	return eventPolicies[e].AllowOutOfHours
}

// IsMandatoryLetter reports whether the event must produce a letter
// regardless of subscription state.
func (e EventType) IsMandatoryLetter() bool { return mandatoryLetterEvents[e] }

// IsFallbackLetterEligible reports whether a letter is sent when a party has
// no usable electronic channel.
func (e EventType) IsFallbackLetterEligible() bool { return fallbackLetterEvents[e] }

// IsBundledLetter reports whether the letter for this event must be
// concatenated with a stored document.
func (e EventType) IsBundledLetter() bool { return bundledLetterEvents[e] }

// OverlappingLetterEvents returns the events present in both the mandatory
// and fallback letter lists. A non-empty result indicates a configuration
// that needs review; the engine does not merge the lists.
func OverlappingLetterEvents() []EventType {
	var out []EventType
	for e := range mandatoryLetterEvents {
		if fallbackLetterEvents[e] {
			out = append(out, e)
		}
	}
	return out
}

// ResolvedEvent is the outcome of the one-way trigger remap. RemappedFrom is
// empty when the raw trigger needed no remapping.
type ResolvedEvent struct {
	Type         EventType
	RemappedFrom EventType
}

// WasRemapped reports whether the event was produced by remapping a raw
// trigger, which subjects it to the resend-to flags during resolution.
func (r ResolvedEvent) WasRemapped() bool { return r.RemappedFrom != "" }

// ResolveConcreteType maps a raw trigger type to the concrete EventType the
// engine routes on, using fields from the new case snapshot. It is pure and
// invoked exactly once per event; the returned value is a new immutable event
// rather than a mutation of shared state.
func ResolveConcreteType(raw EventType, snapshot *CaseSnapshot) (ResolvedEvent, error) {
	switch raw {
	case EventReissueDocument:
		target := snapshot.ReissueTarget
		switch target {
		case EventDirectionIssued, EventDecisionIssued, EventIssueFinalDecision, EventIssueAdjournmentNotice:
			return ResolvedEvent{Type: target, RemappedFrom: raw}, nil
		case "":
			return ResolvedEvent{}, fmt.Errorf("reissue trigger for case %s carries no target document event", snapshot.CaseID)
		default:
			return ResolvedEvent{}, fmt.Errorf("reissue trigger for case %s names unsupported event %q", snapshot.CaseID, target)
		}
	case EventDraftToValidAppealCreated:
		return ResolvedEvent{Type: EventValidAppealCreated, RemappedFrom: raw}, nil
	case EventDraftToNonCompliant:
		return ResolvedEvent{Type: EventNonCompliant, RemappedFrom: raw}, nil
	default:
		return ResolvedEvent{Type: raw}, nil
	}
}
