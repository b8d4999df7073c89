// Package event defines the payloads published for template changes.
package event

import "time"

// TemplateCreated is emitted when a new workout template is accepted.
type TemplateCreated struct {
	TemplateID string    `json:"template_id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Intensity  string    `json:"intensity"`
	CreatedAt  time.Time `json:"created_at"`
	Version    string    `json:"version"`
}

// TemplateClassified tracks intensity assignments, whether from a create,
// a rename, or a backfill pass over existing rows.
type TemplateClassified struct {
	TemplateID string    `json:"template_id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Intensity  string    `json:"intensity"`
	Previous   string    `json:"previous_intensity,omitempty"`
	Trigger    string    `json:"trigger"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Classification triggers recorded on TemplateClassified events.
const (
	TriggerCreate   = "create"
	TriggerRename   = "rename"
	TriggerBackfill = "backfill"
)
