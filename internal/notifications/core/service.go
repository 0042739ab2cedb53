package core

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"casenotify/internal/types"
)

// deferredGroupSuffix keys out-of-hours deferrals per case so a later event
// on the same case cannot cancel an unrelated family's reminders.
const deferredGroupSuffix = "deferred"

// Service is the entry point for one inbound case event. It remaps the raw
// trigger, applies the validity and business-hours gates, resolves recipients,
// and hands each candidate to the dispatcher.
type Service struct {
	resolver   *Resolver
	validity   *ValidityGate
	hours      *HoursGate
	dispatcher *Dispatcher
	reconciler *Reconciler
	reminders  ReminderPlanner
	templates  types.TemplateLookup
	scheduler  types.Scheduler
	metrics    NotificationMetrics
	logger     types.Logger

	// workers bounds concurrent candidate dispatches for one event.
	workers int
}

// ServiceParams collects the Service dependencies.
type ServiceParams struct {
	Resolver   *Resolver
	Validity   *ValidityGate
	Hours      *HoursGate
	Dispatcher *Dispatcher
	Reconciler *Reconciler
	Reminders  ReminderPlanner
	Templates  types.TemplateLookup
	Scheduler  types.Scheduler
	Metrics    NotificationMetrics
	Logger     types.Logger
	Workers    int
}

func NewService(p ServiceParams) *Service {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		resolver:   p.Resolver,
		validity:   p.Validity,
		hours:      p.Hours,
		dispatcher: p.Dispatcher,
		reconciler: p.Reconciler,
		reminders:  p.Reminders,
		templates:  p.Templates,
		scheduler:  p.Scheduler,
		metrics:    p.Metrics,
		logger:     p.Logger,
		workers:    workers,
	}
}

// Handle processes one event message end to end. A nil return means the
// message is consumed: either dispatched, deferred, or deliberately skipped.
// Errors are returned only when redelivering the same message could succeed.
func (s *Service) Handle(ctx context.Context, msg types.EventMessage) error {
	if msg.New == nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "event message carries no case snapshot", nil)
	}

	log := s.logger.With("case_id", msg.New.CaseID, "trace_id", msg.TraceID)

	event, err := types.ResolveConcreteType(msg.EventType, msg.New)
	if err != nil {
		// A reissue trigger without a routable target is a configuration gap
		// on the case, not a transient fault. Redelivery cannot fix it.
		log.Error("event cannot be routed, dropping",
			"event", string(msg.EventType), "error", err.Error())
		return nil
	}
	if event.WasRemapped() {
		log = log.With("event", string(event.Type), "remapped_from", string(event.RemappedFrom))
	} else {
		log = log.With("event", string(event.Type))
	}

	if !s.validity.Allows(event.Type, msg.New) {
		return nil
	}

	if !s.hours.ShouldSendNow(event.Type) {
		return s.deferEvent(ctx, event, msg, log)
	}

	candidates := s.resolver.Resolve(event, msg.New, msg.Old)
	if len(candidates) == 0 {
		log.Info("no recipients resolved, nothing to send")
		return s.reminders.Plan(ctx, event, msg.New)
	}

	classification := msg.New.HearingClassification()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			tmpl, err := s.templates.Lookup(gctx, event.Type, cand.Role, classification, msg.New.BenefitCode)
			if err != nil {
				log.Error("template lookup failed, skipping recipient",
					"role", string(cand.Role), "error", err.Error())
				return nil
			}

			content := Content{
				Template:     tmpl,
				Placeholders: BuildPlaceholders(msg.New, cand),
				Reference:    dispatchReference(msg.New.CaseID, event.Type, cand.Role),
			}
			outcome := s.dispatcher.Dispatch(gctx, event, msg.New, cand, content)
			log.Info("recipient dispatched",
				"role", string(cand.Role),
				"email", string(outcome.Email.Result),
				"sms", string(outcome.SMS.Result),
				"letter", string(outcome.Letter.Result))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if event.Type == types.EventSubscriptionUpdated {
		appellant := Candidate{Role: types.RoleAppellant, Subscription: msg.New.Subscriptions.Appellant}
		ref := dispatchReference(msg.New.CaseID, event.Type, types.RoleAppellant)
		if err := s.reconciler.Reconcile(ctx, event, msg.New, msg.Old, BuildPlaceholders(msg.New, appellant), ref); err != nil {
			log.Error("subscription reconciliation failed", "error", err.Error())
		}
	}

	return s.reminders.Plan(ctx, event, msg.New)
}

// deferEvent parks the whole event with the scheduler until the window opens.
// Deferring the event rather than individual channels keeps a recipient's
// email, SMS, and letter for one event on the same day.
func (s *Service) deferEvent(ctx context.Context, event types.ResolvedEvent, msg types.EventMessage, log types.Logger) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return types.NewCaseError(types.ErrCodeInternalUnexpected, msg.New.CaseID, "marshal deferred event", err)
	}

	dueAt := s.hours.NextOpen()
	job := types.ScheduledJob{
		Group:   fmt.Sprintf("%s.%s", msg.New.CaseID, deferredGroupSuffix),
		Type:    event.Type,
		Payload: payload,
		DueAt:   dueAt,
	}
	if err := s.scheduler.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("defer event %s for case %s: %w", event.Type, msg.New.CaseID, err)
	}

	s.metrics.RecordDeferral(ctx, event.Type)
	log.Info("event deferred until business hours", "due_at", dueAt)
	return nil
}

// dispatchReference builds the deterministic provider reference for one
// candidate. Stable references let providers deduplicate redeliveries.
func dispatchReference(caseID string, event types.EventType, role types.PartyRole) string {
	return fmt.Sprintf("%s.%s.%s", caseID, event, role)
}
