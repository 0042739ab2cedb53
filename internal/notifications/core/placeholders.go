package core

import (
	"strings"

	"casenotify/internal/types"
)

// Template placeholder keys shared with the external provider templates.
const (
	phAppealRef   = "appeal_ref"
	phAppealID    = "appeal_id"
	phName        = "name"
	phBenefit     = "benefit_name"
	phHearingDate = "hearing_date"
	phHearingTime = "hearing_time"
	phVenue       = "hearing_venue"
)

// BuildPlaceholders assembles the personalisation map for one candidate.
// Hearing fields are present only when the case has a recorded hearing.
func BuildPlaceholders(snapshot *types.CaseSnapshot, cand Candidate) types.Placeholders {
	p := types.Placeholders{
		phAppealRef: snapshot.CaseReference,
		phBenefit:   strings.ToUpper(snapshot.BenefitCode),
	}
	if p[phAppealRef] == "" {
		p[phAppealRef] = snapshot.CaseID
	}
	if cand.Subscription != nil {
		p[phAppealID] = cand.Subscription.TrackingToken
	}
	if party := snapshot.PartyForRole(cand.Role); party != nil {
		p[phName] = party.Name
	}
	if hearing := snapshot.LatestHearing(); hearing != nil {
		p[phHearingDate] = hearing.DateTime.Format("2 January 2006")
		p[phHearingTime] = hearing.DateTime.Format("15:04")
		p[phVenue] = hearing.VenueName
		if hearing.VenueTown != "" {
			p[phVenue] = hearing.VenueName + ", " + hearing.VenueTown
		}
	}
	return p
}
