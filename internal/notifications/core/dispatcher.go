package core

import (
	"context"
	"sync"
	"time"

	"casenotify/internal/notifications/letter"
	"casenotify/internal/types"
)

// Dispatcher performs the per-candidate channel sends. Channels are isolated:
// an email failure never blocks the SMS or letter for the same candidate, and
// each channel retries independently under its own policy.
type Dispatcher struct {
	email     types.EmailSender
	sms       types.SmsSender
	letters   types.LetterSender
	covers    types.LetterGenerator
	bundler   *letter.Bundler
	templates types.TemplateLookup
	policies  map[types.ChannelType]RetryPolicy
	metrics   NotificationMetrics
	clock     types.Clock
	logger    types.Logger

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// DispatcherOption adjusts a dispatcher at construction time.
type DispatcherOption func(*Dispatcher)

// WithMaxAttempts caps the attempt count on every channel policy. Values
// below one leave the channel defaults in place.
func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n < 1 {
			return
		}
		for ch, p := range d.policies {
			p.MaxAttempts = n
			d.policies[ch] = p
		}
	}
}

// NewDispatcher wires a dispatcher with the standard per-channel retry
// policies.
func NewDispatcher(
	email types.EmailSender,
	sms types.SmsSender,
	letters types.LetterSender,
	covers types.LetterGenerator,
	bundler *letter.Bundler,
	templates types.TemplateLookup,
	metrics NotificationMetrics,
	clock types.Clock,
	logger types.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		email:     email,
		sms:       sms,
		letters:   letters,
		covers:    covers,
		bundler:   bundler,
		templates: templates,
		policies: map[types.ChannelType]RetryPolicy{
			types.ChannelEmail:  EmailRetryPolicy,
			types.ChannelSMS:    SMSRetryPolicy,
			types.ChannelLetter: LetterRetryPolicy,
		},
		metrics: metrics,
		clock:   clock,
		logger:  logger,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends the event's notifications to one candidate across all three
// channels. The three channels run concurrently; each writes only its own
// slot of the Outcome. Partial failure is reported, never rolled back: a sent
// email stays sent when the letter provider is down.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.ResolvedEvent, snapshot *types.CaseSnapshot, cand Candidate, content Content) Outcome {
	var (
		out Outcome
		wg  sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		out.Email = d.sendEmail(ctx, snapshot.CaseID, cand, content)
	}()
	go func() {
		defer wg.Done()
		out.SMS = d.sendSMS(ctx, snapshot.CaseID, cand, content)
	}()
	go func() {
		defer wg.Done()
		out.Letter = d.sendLetter(ctx, event, snapshot, cand, content)
	}()
	wg.Wait()

	return out
}

func (d *Dispatcher) sendEmail(ctx context.Context, caseID string, cand Candidate, content Content) ChannelOutcome {
	templateID := content.Template.EmailTemplateID
	if templateID == "" || !cand.Subscription.WantsEmail() {
		return d.skip(ctx, types.ChannelEmail)
	}
	address := cand.Subscription.Email
	return d.sendWithRetry(ctx, types.ChannelEmail, caseID, string(cand.Role), func(ctx context.Context) error {
		return d.email.SendEmail(ctx, templateID, address, content.Placeholders, content.Reference)
	})
}

func (d *Dispatcher) sendSMS(ctx context.Context, caseID string, cand Candidate, content Content) ChannelOutcome {
	if len(content.Template.SMSTemplateIDs) == 0 || !cand.Subscription.WantsSMS() {
		return d.skip(ctx, types.ChannelSMS)
	}
	number := cand.Subscription.Mobile

	// Some events carry more than one SMS template; each is a separate send
	// and the channel fails if any of them does.
	for _, templateID := range content.Template.SMSTemplateIDs {
		id := templateID
		outcome := d.sendWithRetry(ctx, types.ChannelSMS, caseID, string(cand.Role), func(ctx context.Context) error {
			return d.sms.SendSMS(ctx, id, number, content.Placeholders, content.Reference)
		})
		if outcome.Result != types.DeliverySent {
			return outcome
		}
	}
	return ChannelOutcome{Result: types.DeliverySent}
}

// fallbackLetterRoles limits the fallback letter to the parties it is owed
// to. A joint party never receives one.
var fallbackLetterRoles = map[types.PartyRole]bool{
	types.RoleAppellant:      true,
	types.RoleAppointee:      true,
	types.RoleRepresentative: true,
}

// sendLetter resolves which letter, if any, this candidate gets. A configured
// letter template always produces a letter, with no subscription opt-in; a
// fallback-eligible event without a usable electronic channel produces the
// role-specific fallback letter instead.
func (d *Dispatcher) sendLetter(ctx context.Context, event types.ResolvedEvent, snapshot *types.CaseSnapshot, cand Candidate, content Content) ChannelOutcome {
	templateID := content.Template.LetterTemplateID
	if templateID == "" && event.Type.IsFallbackLetterEligible() && fallbackLetterRoles[cand.Role] && !cand.Subscription.HasElectronicChannel() {
		fallback, err := d.templates.FallbackLetter(ctx, cand.Role)
		if err != nil {
			d.logger.Error("fallback letter template lookup failed",
				"case_id", snapshot.CaseID, "role", string(cand.Role), "error", err.Error())
			d.metrics.RecordDispatch(ctx, types.ChannelLetter, types.DeliveryFailed)
			return ChannelOutcome{Result: types.DeliveryFailed, Err: err}
		}
		templateID = fallback
	}
	if templateID == "" {
		return d.skip(ctx, types.ChannelLetter)
	}

	party := snapshot.PartyForRole(cand.Role)
	if party == nil {
		d.logger.Warn("letter recipient has no recorded address, skipping",
			"case_id", snapshot.CaseID, "role", string(cand.Role))
		return d.skip(ctx, types.ChannelLetter)
	}

	return d.sendWithRetry(ctx, types.ChannelLetter, snapshot.CaseID, string(cand.Role), func(ctx context.Context) error {
		cover, err := d.covers.GenerateCover(ctx, templateID, content.Placeholders)
		if err != nil {
			return err
		}
		pdf, err := d.bundler.Assemble(ctx, event.Type, snapshot, cover)
		if err != nil {
			return err
		}
		if len(pdf) == 0 {
			return types.NewCaseError(types.ErrCodeContentMalformedTemplate, snapshot.CaseID,
				"letter render produced no document bytes", nil)
		}
		return d.letters.SendLetter(ctx, party.Address, pdf, content.Placeholders, content.Reference)
	})
}

// sendWithRetry runs one channel send under its retry policy. Only transient
// provider errors are retried; content faults and configuration gaps fail the
// channel on the first attempt.
func (d *Dispatcher) sendWithRetry(ctx context.Context, channel types.ChannelType, caseID, role string, send func(context.Context) error) ChannelOutcome {
	policy := d.policies[channel]
	start := d.clock.Now()

	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			d.sleep(CalculateNextRetry(policy, attempt-1))
		}
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}

		err = send(ctx)
		if err == nil {
			d.metrics.RecordDispatch(ctx, channel, types.DeliverySent)
			d.metrics.RecordLatency(ctx, channel, d.clock.Now().Sub(start))
			return ChannelOutcome{Result: types.DeliverySent}
		}
		if !types.IsRetryable(err) {
			break
		}
		d.logger.Warn("delivery attempt failed, will retry",
			"channel", string(channel), "case_id", caseID, "role", role,
			"attempt", attempt+1, "error", err.Error())
	}

	d.logger.Error("delivery failed",
		"channel", string(channel), "case_id", caseID, "role", role, "error", err.Error())
	d.metrics.RecordDispatch(ctx, channel, types.DeliveryFailed)
	return ChannelOutcome{Result: types.DeliveryFailed, Err: err}
}

func (d *Dispatcher) skip(ctx context.Context, channel types.ChannelType) ChannelOutcome {
	d.metrics.RecordDispatch(ctx, channel, types.DeliverySkipped)
	return ChannelOutcome{Result: types.DeliverySkipped}
}
