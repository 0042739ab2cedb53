package types

// PartyRole identifies a category of case participant that can hold a
// subscription and receive notifications.
type PartyRole string

const (
	RoleAppellant      PartyRole = "appellant"
	RoleAppointee      PartyRole = "appointee"
	RoleRepresentative PartyRole = "representative"
	RoleJointParty     PartyRole = "jointParty"
)

// ChannelType identifies a notification delivery channel.
type ChannelType string

const (
	ChannelEmail  ChannelType = "email"
	ChannelSMS    ChannelType = "sms"
	ChannelLetter ChannelType = "letter"
)

// HearingKind classifies how a case is heard. Online cases carry the explicit
// continuous-online-resolution code; everything else is attended or paper
// depending on whether the appellant wants to attend.
type HearingKind string

const (
	HearingAttended HearingKind = "oral"
	HearingPaper    HearingKind = "paper"
	HearingOnline   HearingKind = "cor"
)

// CaseState is the case-management state a case was created from or currently
// holds. Only the states the engine gates on are enumerated.
type CaseState string

const (
	StateReadyToList CaseState = "readyToList"
	StateValidAppeal CaseState = "validAppeal"
	StateWithDwp     CaseState = "withDwp"
)

// RequestOutcome is the decision recorded against a confidentiality request.
type RequestOutcome string

const (
	OutcomeGranted RequestOutcome = "granted"
	OutcomeRefused RequestOutcome = "refused"
)

// DeliveryResult categorizes the outcome of a single channel send.
type DeliveryResult string

const (
	DeliverySent    DeliveryResult = "sent"
	DeliveryFailed  DeliveryResult = "failed"
	DeliverySkipped DeliveryResult = "skipped"
)
