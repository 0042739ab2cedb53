package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casenotify/internal/notifications/core"
	"casenotify/internal/types"
)

// Compile-time assertion that Planner implements core.ReminderPlanner.
var _ core.ReminderPlanner = (*Planner)(nil)

// Reminder job group suffixes. Groups are "{caseID}.{family}" so cancelling
// one family never touches another.
const (
	groupAppealCreated    = "appealCreated"
	groupEvidenceReminder = "evidenceReminder"
	groupHearingReminder  = "hearingReminder"
)

// Planner schedules and cancels follow-up work in reaction to case events.
type Planner struct {
	scheduler types.Scheduler
	clock     types.Clock
	cfg       types.ReminderConfig
	logger    types.Logger
}

func NewPlanner(scheduler types.Scheduler, clock types.Clock, cfg types.ReminderConfig, logger types.Logger) *Planner {
	return &Planner{scheduler: scheduler, clock: clock, cfg: cfg, logger: logger}
}

// Plan reacts to one dispatched event. Scheduling failures surface to the
// caller so the queue can redeliver; reminders are part of the event's
// contract, not best effort.
func (p *Planner) Plan(ctx context.Context, event types.ResolvedEvent, snapshot *types.CaseSnapshot) error {
	switch event.Type {
	case types.EventAppealReceived:
		return p.planAppealCreatedConfirmation(ctx, snapshot)

	case types.EventDwpResponseReceived:
		return p.planEvidenceReminder(ctx, snapshot)

	case types.EventHearingBooked:
		return p.planHearingReminders(ctx, snapshot)

	case types.EventPostponement, types.EventAdjourned:
		return p.cancel(ctx, snapshot.CaseID, groupHearingReminder)

	case types.EventAppealWithdrawn, types.EventAdminAppealWithdrawn,
		types.EventAppealLapsed, types.EventHmctsAppealLapsed, types.EventDwpAppealLapsed,
		types.EventStruckOut, types.EventAppealDormant:
		// Terminal events moot all pending follow-ups for the case.
		if err := p.cancel(ctx, snapshot.CaseID, groupHearingReminder); err != nil {
			return err
		}
		if err := p.cancel(ctx, snapshot.CaseID, groupEvidenceReminder); err != nil {
			return err
		}
		return p.cancel(ctx, snapshot.CaseID, groupAppealCreated)
	}

	return nil
}

// planAppealCreatedConfirmation schedules the short-delay appeal-created
// confirmation send.
func (p *Planner) planAppealCreatedConfirmation(ctx context.Context, snapshot *types.CaseSnapshot) error {
	return p.enqueueEvent(ctx,
		types.EventAppealCreated,
		snapshot,
		group(snapshot.CaseID, groupAppealCreated),
		p.clock.Now().Add(p.cfg.AppealCreatedDelay),
	)
}

// planEvidenceReminder schedules the evidence reminder a fixed period after
// the response was received.
func (p *Planner) planEvidenceReminder(ctx context.Context, snapshot *types.CaseSnapshot) error {
	return p.enqueueEvent(ctx,
		types.EventEvidenceReminder,
		snapshot,
		group(snapshot.CaseID, groupEvidenceReminder),
		p.clock.Now().Add(p.cfg.EvidenceReminderAfter),
	)
}

// planHearingReminders schedules one reminder per configured lead time
// before the hearing. A re-booking replaces the previous set: the old group
// is cancelled before the new reminders go in.
func (p *Planner) planHearingReminders(ctx context.Context, snapshot *types.CaseSnapshot) error {
	hearing := snapshot.LatestHearing()
	if hearing == nil {
		p.logger.Warn("hearing booked without a recorded hearing, no reminders planned",
			"case_id", snapshot.CaseID)
		return nil
	}

	g := group(snapshot.CaseID, groupHearingReminder)
	if err := p.cancel(ctx, snapshot.CaseID, groupHearingReminder); err != nil {
		return err
	}

	now := p.clock.Now()
	planned := 0
	for _, lead := range p.cfg.HearingReminderLeads {
		dueAt := hearing.DateTime.Add(-lead)
		if !dueAt.After(now) {
			continue
		}
		if err := p.enqueueEvent(ctx, types.EventHearingReminder, snapshot, g, dueAt); err != nil {
			return err
		}
		planned++
	}

	p.logger.Info("hearing reminders planned",
		"case_id", snapshot.CaseID, "count", planned, "hearing_at", hearing.DateTime)
	return nil
}

func (p *Planner) enqueueEvent(ctx context.Context, event types.EventType, snapshot *types.CaseSnapshot, group string, dueAt time.Time) error {
	payload, err := json.Marshal(types.EventMessage{EventType: event, New: snapshot})
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "marshal reminder payload", err)
	}
	return p.scheduler.Enqueue(ctx, types.ScheduledJob{
		Group:   group,
		Type:    event,
		Payload: payload,
		DueAt:   dueAt,
	})
}

func group(caseID, family string) string {
	return fmt.Sprintf("%s.%s", caseID, family)
}

func (p *Planner) cancel(ctx context.Context, caseID, family string) error {
	return p.scheduler.CancelGroup(ctx, group(caseID, family))
}
