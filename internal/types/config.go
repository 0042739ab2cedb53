package types

import "time"

// Config is the full engine configuration, populated from the environment by
// internal/config.Load.
type Config struct {
	App       AppConfig      `envconfig:"APP"`
	API       APIConfig      `envconfig:"API"`
	AWS       AWSConfig      `envconfig:"AWS"`
	Hours     BusinessHours  `envconfig:"HOURS"`
	Dispatch  DispatchConfig `envconfig:"DISPATCH"`
	Providers ProviderConfig `envconfig:"PROVIDERS"`
	DB        DBConfig       `envconfig:"DB"`
	Reminders ReminderConfig `envconfig:"REMINDERS"`
	Runner    RunnerConfig   `envconfig:"RUNNER"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// APIConfig holds the callback HTTP server settings.
type APIConfig struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
}

// AWSConfig holds region and queue settings.
type AWSConfig struct {
	Region        string `envconfig:"REGION" default:"eu-west-2"`
	EventQueueURL string `envconfig:"EVENT_QUEUE_URL" validate:"required"`
}

// BusinessHours is the window during which immediate dispatch is permitted.
// Start and End are wall-clock "HH:MM" strings evaluated in Timezone;
// overnight windows (End before Start) are supported.
type BusinessHours struct {
	Start    string `envconfig:"START" default:"09:00"`
	End      string `envconfig:"END" default:"17:00"`
	Timezone string `envconfig:"TIMEZONE" default:"Europe/London"`
}

// DispatchConfig bounds the worker pool and retry ceilings.
type DispatchConfig struct {
	// Workers bounds the number of candidates dispatched concurrently.
	Workers     int `envconfig:"WORKERS" default:"4"`
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" default:"3"`

	// TemplatesPath locates the template registry JSON.
	TemplatesPath string `envconfig:"TEMPLATES_PATH" default:"config/templates.json"`
}

// ProviderConfig holds external provider settings.
type ProviderConfig struct {
	EmailFrom         string `envconfig:"EMAIL_FROM" validate:"required,email"`
	EmailConfigSet    string `envconfig:"EMAIL_CONFIG_SET"`
	SMSSenderID       string `envconfig:"SMS_SENDER_ID" default:"HMCTS"`
	LetterProviderURL string `envconfig:"LETTER_PROVIDER_URL" validate:"required,url"`
	DocumentStoreURL  string `envconfig:"DOCUMENT_STORE_URL" validate:"required,url"`
	APIKey            string `envconfig:"API_KEY"`
}

// DBConfig holds the scheduler job-store connection settings.
type DBConfig struct {
	URL string `envconfig:"URL" validate:"required"`
}

// ReminderConfig holds the fixed delays used when planning scheduled work.
type ReminderConfig struct {
	// AppealCreatedDelay is the intentional short delay before the
	// appeal-created confirmation goes out.
	AppealCreatedDelay time.Duration `envconfig:"APPEAL_CREATED_DELAY" default:"5m"`

	// EvidenceReminderAfter is how long after a response is received the
	// evidence reminder fires.
	EvidenceReminderAfter time.Duration `envconfig:"EVIDENCE_REMINDER_AFTER" default:"48h"`

	// HearingReminderLeads are the lead times before the hearing date at
	// which hearing reminders fire.
	HearingReminderLeads []time.Duration `envconfig:"HEARING_REMINDER_LEADS" default:"336h,48h"`
}

// RunnerConfig bounds the scheduled-job poller.
type RunnerConfig struct {
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	BatchSize    int           `envconfig:"BATCH_SIZE" default:"50"`
}
