// Package notifications holds the template configuration consumed by the
// dispatch engine in the core subpackage.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"casenotify/internal/types"
)

// Compile-time assertion that Registry implements types.TemplateLookup.
var _ types.TemplateLookup = (*Registry)(nil)

// TemplateConfig is the on-disk shape of the template registry. Entries are
// keyed "event.role" with optional ".hearing" and ".benefit" refinements; the
// most specific matching key wins.
type TemplateConfig struct {
	Entries         map[string]types.Template  `json:"entries"`
	FallbackLetters map[types.PartyRole]string `json:"fallback_letters"`
	SMSBodies       map[string]string          `json:"sms_bodies,omitempty"`
}

// Registry resolves per-channel template ids from static configuration. An
// event with no entry for a role yields an empty Template, which the
// dispatcher treats as "no channels configured" rather than an error.
type Registry struct {
	cfg TemplateConfig
}

// NewRegistry builds a registry from an already-parsed configuration.
func NewRegistry(cfg TemplateConfig) *Registry {
	return &Registry{cfg: cfg}
}

// LoadRegistry reads the template configuration from a JSON file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template config: %w", err)
	}
	var cfg TemplateConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse template config %s: %w", path, err)
	}
	return &Registry{cfg: cfg}, nil
}

// SMSBodies exposes the local SMS message texts keyed by template id.
func (r *Registry) SMSBodies() map[string]string {
	return r.cfg.SMSBodies
}

// Lookup resolves the template set for one event and role, preferring the
// most specific entry:
//
//	event.role.hearing.benefit > event.role.hearing > event.role
func (r *Registry) Lookup(_ context.Context, event types.EventType, role types.PartyRole, hearing types.HearingKind, benefitCode string) (types.Template, error) {
	keys := []string{
		fmt.Sprintf("%s.%s.%s.%s", event, role, hearing, benefitCode),
		fmt.Sprintf("%s.%s.%s", event, role, hearing),
		fmt.Sprintf("%s.%s", event, role),
	}
	for _, key := range keys {
		if tmpl, ok := r.cfg.Entries[key]; ok {
			return tmpl, nil
		}
	}
	return types.Template{}, nil
}

// FallbackLetter returns the role-specific letter template used when a party
// has no usable electronic channel.
func (r *Registry) FallbackLetter(_ context.Context, role types.PartyRole) (string, error) {
	tmpl, ok := r.cfg.FallbackLetters[role]
	if !ok {
		return "", types.NewAppError(
			types.ErrCodeConfigMissingTemplate,
			fmt.Sprintf("no fallback letter template for role %q", role),
			nil,
		)
	}
	return tmpl, nil
}
