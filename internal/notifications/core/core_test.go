package core

import (
	"context"
	"sync"
	"time"

	"casenotify/internal/notifications/letter"
	"casenotify/internal/types"
)

// mockClock implements types.Clock for deterministic testing.
type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time { return c.now }

// mockLogger implements types.Logger as a no-op for tests.
type mockLogger struct{}

func (l *mockLogger) Info(msg string, args ...any)  {}
func (l *mockLogger) Error(msg string, args ...any) {}
func (l *mockLogger) Warn(msg string, args ...any)  {}
func (l *mockLogger) With(args ...any) types.Logger { return l }

type emailCall struct {
	TemplateID string
	Address    string
	Reference  string
}

type fakeEmailSender struct {
	mu    sync.Mutex
	calls []emailCall
	errs  []error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, templateID, address string, _ types.Placeholders, reference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emailCall{TemplateID: templateID, Address: address, Reference: reference})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

type smsCall struct {
	TemplateID string
	Number     string
}

type fakeSmsSender struct {
	mu    sync.Mutex
	calls []smsCall
	errs  []error
}

func (f *fakeSmsSender) SendSMS(_ context.Context, templateID, number string, _ types.Placeholders, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, smsCall{TemplateID: templateID, Number: number})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

type letterCall struct {
	Address types.Address
	PDF     []byte
}

type fakeLetterSender struct {
	mu    sync.Mutex
	calls []letterCall
	errs  []error
}

func (f *fakeLetterSender) SendLetter(_ context.Context, address types.Address, pdf []byte, _ types.Placeholders, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, letterCall{Address: address, PDF: pdf})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

type fakeCoverGenerator struct {
	cover []byte
	err   error
}

func (f *fakeCoverGenerator) GenerateCover(context.Context, string, types.Placeholders) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cover == nil {
		return []byte("cover"), nil
	}
	return f.cover, nil
}

type fakeDocumentStore struct {
	docs map[string][]byte
	err  error
}

func (f *fakeDocumentStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[ref], nil
}

type fakeTemplateLookup struct {
	templates map[types.EventType]types.Template
	fallback  string
	err       error
}

func (f *fakeTemplateLookup) Lookup(_ context.Context, event types.EventType, _ types.PartyRole, _ types.HearingKind, _ string) (types.Template, error) {
	if f.err != nil {
		return types.Template{}, f.err
	}
	return f.templates[event], nil
}

func (f *fakeTemplateLookup) FallbackLetter(context.Context, types.PartyRole) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.fallback, nil
}

type fakeMetrics struct {
	mu         sync.Mutex
	dispatches map[types.ChannelType]map[types.DeliveryResult]int
	deferrals  int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{dispatches: make(map[types.ChannelType]map[types.DeliveryResult]int)}
}

func (f *fakeMetrics) RecordDispatch(_ context.Context, channel types.ChannelType, result types.DeliveryResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatches[channel] == nil {
		f.dispatches[channel] = make(map[types.DeliveryResult]int)
	}
	f.dispatches[channel][result]++
}

func (f *fakeMetrics) RecordLatency(context.Context, types.ChannelType, time.Duration) {}

func (f *fakeMetrics) RecordDeferral(_ context.Context, _ types.EventType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deferrals++
}

type fakeScheduler struct {
	mu        sync.Mutex
	enqueued  []types.ScheduledJob
	cancelled []string
}

func (f *fakeScheduler) Enqueue(_ context.Context, job types.ScheduledJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, job)
	return nil
}

func (f *fakeScheduler) CancelGroup(_ context.Context, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, group)
	return nil
}

type fakePlanner struct {
	planned []types.EventType
}

func (f *fakePlanner) Plan(_ context.Context, event types.ResolvedEvent, _ *types.CaseSnapshot) error {
	f.planned = append(f.planned, event.Type)
	return nil
}

// testEnv bundles the dispatcher and its fakes for assertions.
type testEnv struct {
	dispatcher *Dispatcher
	email      *fakeEmailSender
	sms        *fakeSmsSender
	letters    *fakeLetterSender
	covers     *fakeCoverGenerator
	templates  *fakeTemplateLookup
	metrics    *fakeMetrics
	clock      *mockClock
}

func newTestEnv(opts ...DispatcherOption) *testEnv {
	logger := &mockLogger{}
	clock := &mockClock{now: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)}
	email := &fakeEmailSender{}
	sms := &fakeSmsSender{}
	letters := &fakeLetterSender{}
	covers := &fakeCoverGenerator{}
	templates := &fakeTemplateLookup{templates: map[types.EventType]types.Template{}}
	metrics := newFakeMetrics()
	bundler := letter.NewBundler(&fakeDocumentStore{}, logger)

	d := NewDispatcher(email, sms, letters, covers, bundler, templates, metrics, clock, logger, opts...)
	d.sleep = func(time.Duration) {}

	return &testEnv{
		dispatcher: d,
		email:      email,
		sms:        sms,
		letters:    letters,
		covers:     covers,
		templates:  templates,
		metrics:    metrics,
		clock:      clock,
	}
}

func baseSnapshot() *types.CaseSnapshot {
	return &types.CaseSnapshot{
		CaseID:        "1002",
		CaseReference: "SC001/01/00001",
		BenefitCode:   "pip",
		WantsToAttend: true,
		Appellant: &types.Party{
			Name:    "Ana Perez",
			Address: types.Address{Line1: "1 High St", Town: "Leeds", Postcode: "LS1 1AA"},
		},
		Subscriptions: types.Subscriptions{
			Appellant: &types.Subscription{
				TrackingToken:  "tok-1",
				Email:          "ana@example.com",
				Mobile:         "07700900001",
				SubscribeEmail: true,
				SubscribeSMS:   true,
			},
		},
	}
}
