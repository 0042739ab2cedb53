package types

import (
	"strings"
	"time"
)

// Subscription holds one party's notification preferences and contact points.
// A Subscription with both opt-in flags false is inert: it must never trigger
// an electronic send even when contact details are present.
type Subscription struct {
	// TrackingToken is the unique token the party uses to manage the
	// subscription; it doubles as the appeal number in placeholders.
	TrackingToken  string `json:"tracking_token,omitempty"`
	Email          string `json:"email,omitempty"`
	Mobile         string `json:"mobile,omitempty"`
	SubscribeEmail bool   `json:"subscribe_email"`
	SubscribeSMS   bool   `json:"subscribe_sms"`
}

// WantsEmail reports whether the subscription can receive an email.
func (s *Subscription) WantsEmail() bool {
	return s != nil && s.SubscribeEmail && s.Email != ""
}

// WantsSMS reports whether the subscription can receive an SMS.
func (s *Subscription) WantsSMS() bool {
	return s != nil && s.SubscribeSMS && s.Mobile != ""
}

// HasElectronicChannel reports whether at least one opted-in electronic
// channel is usable. The fallback-letter rule fires when this is false.
func (s *Subscription) HasElectronicChannel() bool {
	return s.WantsEmail() || s.WantsSMS()
}

// Subscriptions aggregates the per-role subscriptions on a case. Absent roles
// are nil.
type Subscriptions struct {
	Appellant      *Subscription `json:"appellant,omitempty"`
	Appointee      *Subscription `json:"appointee,omitempty"`
	Representative *Subscription `json:"representative,omitempty"`
	JointParty     *Subscription `json:"joint_party,omitempty"`
}

// ForRole returns the subscription held by the given role, or nil.
func (s Subscriptions) ForRole(role PartyRole) *Subscription {
	switch role {
	case RoleAppellant:
		return s.Appellant
	case RoleAppointee:
		return s.Appointee
	case RoleRepresentative:
		return s.Representative
	case RoleJointParty:
		return s.JointParty
	}
	return nil
}

// Address is a postal address used for letter delivery.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
}

// Party is a case participant with a name and a postal address.
type Party struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// Hearing is a past or future hearing recorded on the case. The snapshot's
// hearing list is ordered most recent first.
type Hearing struct {
	DateTime  time.Time `json:"date_time"`
	VenueName string    `json:"venue_name,omitempty"`
	VenueTown string    `json:"venue_town,omitempty"`
}

// CaseDocument is a document stored against the case. Type distinguishes the
// single direction-text attachment used by bundled letters.
type CaseDocument struct {
	Type string `json:"type"`
	// Ref locates the document bytes in the external document store.
	Ref       string    `json:"ref"`
	DateAdded time.Time `json:"date_added,omitempty"`
}

// DocumentTypeDirectionText is the document type a bundled letter attaches.
const DocumentTypeDirectionText = "Direction Text"

// DatedRequestOutcome records a confidentiality-request decision and when it
// was made.
type DatedRequestOutcome struct {
	Outcome RequestOutcome `json:"outcome"`
	Date    time.Time      `json:"date,omitempty"`
}

// Matches reports whether the dated outcome holds the given decision. A nil
// receiver never matches.
func (d *DatedRequestOutcome) Matches(outcome RequestOutcome) bool {
	return d != nil && d.Outcome == outcome
}

// CaseSnapshot is an immutable view of a case at one point in time. The
// engine receives two per event (new and old) and only ever reads them; case
// state is owned and mutated exclusively by the case-management platform.
type CaseSnapshot struct {
	CaseID        string    `json:"case_id"`
	CaseReference string    `json:"case_reference,omitempty"`
	BenefitCode   string    `json:"benefit_code,omitempty"`
	State         CaseState `json:"state,omitempty"`

	// CreatedFromState is the state the case held when the triggering upload
	// was created; it gates the dwpUploadResponse event.
	CreatedFromState CaseState `json:"created_from_state,omitempty"`

	// HearingKind is the explicit hearing-format code. Only HearingOnline is
	// authoritative; attended vs paper is derived from WantsToAttend.
	HearingKind   HearingKind `json:"hearing_kind,omitempty"`
	WantsToAttend bool        `json:"wants_to_attend"`

	Hearings  []Hearing      `json:"hearings,omitempty"`
	Documents []CaseDocument `json:"documents,omitempty"`

	Subscriptions Subscriptions `json:"subscriptions"`

	Appellant      *Party `json:"appellant,omitempty"`
	Appointee      *Party `json:"appointee,omitempty"`
	Representative *Party `json:"representative,omitempty"`
	JointParty     *Party `json:"joint_party,omitempty"`

	ConfidentialityOutcomeAppellant  *DatedRequestOutcome `json:"confidentiality_outcome_appellant,omitempty"`
	ConfidentialityOutcomeJointParty *DatedRequestOutcome `json:"confidentiality_outcome_joint_party,omitempty"`

	// ReissueTarget names the concrete document event a reissue trigger
	// resolves to.
	ReissueTarget          EventType `json:"reissue_target,omitempty"`
	ResendToAppellant      bool      `json:"resend_to_appellant,omitempty"`
	ResendToRepresentative bool      `json:"resend_to_representative,omitempty"`
}

// PartyForRole returns the addressable party for the role. An appointee
// without separately recorded details falls back to the appellant's.
func (c *CaseSnapshot) PartyForRole(role PartyRole) *Party {
	switch role {
	case RoleAppellant:
		return c.Appellant
	case RoleAppointee:
		if c.Appointee != nil {
			return c.Appointee
		}
		return c.Appellant
	case RoleRepresentative:
		return c.Representative
	case RoleJointParty:
		return c.JointParty
	}
	return nil
}

// HearingClassification derives the attended/paper/online classification the
// validity gate routes on. A case is online only when the hearing-format code
// marks it explicitly so.
func (c *CaseSnapshot) HearingClassification() HearingKind {
	if c.HearingKind == HearingOnline {
		return HearingOnline
	}
	if c.WantsToAttend {
		return HearingAttended
	}
	return HearingPaper
}

// LatestHearing returns the most recently recorded hearing, or nil when the
// case has none.
func (c *CaseSnapshot) LatestHearing() *Hearing {
	if len(c.Hearings) == 0 {
		return nil
	}
	return &c.Hearings[0]
}

// FindDocument returns the first document of the given type (compared
// case-insensitively), or nil.
func (c *CaseSnapshot) FindDocument(docType string) *CaseDocument {
	for i := range c.Documents {
		if strings.EqualFold(c.Documents[i].Type, docType) {
			return &c.Documents[i]
		}
	}
	return nil
}

// Template carries the per-channel template ids resolved for one candidate.
// A nil/empty id means the channel is not configured for the event.
type Template struct {
	EmailTemplateID  string   `json:"email_template_id,omitempty"`
	SMSTemplateIDs   []string `json:"sms_template_ids,omitempty"`
	LetterTemplateID string   `json:"letter_template_id,omitempty"`
}

// Placeholders is the key/value map substituted into templates by the
// external providers. The engine treats values as opaque.
type Placeholders map[string]string
