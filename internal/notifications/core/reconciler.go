package core

import (
	"context"

	"casenotify/internal/types"
)

// Reconciler notifies the previous contact points when a paper case's
// appellant subscription changes. Someone who updates their email address
// gets a final notification at the old address confirming it was superseded,
// so a hijacked update does not go unnoticed.
type Reconciler struct {
	dispatcher *Dispatcher
	templates  types.TemplateLookup
	logger     types.Logger
}

func NewReconciler(dispatcher *Dispatcher, templates types.TemplateLookup, logger types.Logger) *Reconciler {
	return &Reconciler{dispatcher: dispatcher, templates: templates, logger: logger}
}

// Reconcile compares the appellant subscription across snapshots and sends
// the superseded-subscription notification to any contact point that changed.
// Only subscription updates on paper cases qualify; everything else is a
// no-op.
func (r *Reconciler) Reconcile(ctx context.Context, event types.ResolvedEvent, latest, previous *types.CaseSnapshot, placeholders types.Placeholders, reference string) error {
	if event.Type != types.EventSubscriptionUpdated || previous == nil {
		return nil
	}
	if latest.HearingClassification() != types.HearingPaper {
		return nil
	}

	oldSub := previous.Subscriptions.Appellant
	newSub := latest.Subscriptions.Appellant
	if oldSub == nil {
		return nil
	}

	superseded := &types.Subscription{
		TrackingToken: oldSub.TrackingToken,
	}
	if oldSub.Email != "" && (newSub == nil || newSub.Email != oldSub.Email) {
		superseded.Email = oldSub.Email
		superseded.SubscribeEmail = oldSub.SubscribeEmail
	}
	if oldSub.Mobile != "" && (newSub == nil || newSub.Mobile != oldSub.Mobile) {
		superseded.Mobile = oldSub.Mobile
		superseded.SubscribeSMS = oldSub.SubscribeSMS
	}
	if !superseded.HasElectronicChannel() {
		return nil
	}

	tmpl, err := r.templates.Lookup(ctx, types.EventSubscriptionOld, types.RoleAppellant, latest.HearingClassification(), latest.BenefitCode)
	if err != nil {
		return types.NewCaseError(types.ErrCodeConfigMissingTemplate, latest.CaseID,
			"superseded subscription template missing", err)
	}

	r.logger.Info("notifying superseded subscription contact points",
		"case_id", latest.CaseID,
		"old_email_changed", superseded.Email != "",
		"old_mobile_changed", superseded.Mobile != "")

	cand := Candidate{Role: types.RoleAppellant, Subscription: superseded}
	content := Content{Template: tmpl, Placeholders: placeholders, Reference: reference + ".superseded"}

	outcome := r.dispatcher.Dispatch(ctx, types.ResolvedEvent{Type: types.EventSubscriptionOld}, latest, cand, content)
	if outcome.Failed() {
		r.logger.Error("superseded subscription notification failed", "case_id", latest.CaseID)
	}
	return nil
}
