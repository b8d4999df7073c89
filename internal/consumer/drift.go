package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"example.com/template/internal/intensity"
)

// templatePayload covers the fields shared by template.created and
// template.classified events.
type templatePayload struct {
	TemplateID string `json:"template_id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	Intensity  string `json:"intensity"`
}

// DriftHandler re-runs the classifier over published template events and
// reports events whose stored label disagrees with the current rule table.
// Classification is a pure function of the name, so any mismatch means the
// rule table changed after the row was written and a backfill pass is due.
type DriftHandler struct {
	classifier *intensity.Classifier
	logger     *log.Logger
}

// NewDriftHandler constructs a DriftHandler. A nil classifier selects the
// default rule table.
func NewDriftHandler(classifier *intensity.Classifier) *DriftHandler {
	if classifier == nil {
		classifier = intensity.NewClassifier(nil)
	}
	return &DriftHandler{
		classifier: classifier,
		logger:     log.New(log.Writer(), "[drift] ", log.LstdFlags),
	}
}

// Handle inspects a single template event.
func (h *DriftHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "template.created", "template.classified":
	default:
		return nil
	}

	var payload templatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	if strings.TrimSpace(payload.TemplateID) == "" {
		return fmt.Errorf("%s event missing template_id", msg.EventType)
	}

	stored := intensity.Intensity(payload.Intensity)
	if !stored.Valid() {
		return fmt.Errorf("event for template %s carries unknown intensity %q", payload.TemplateID, payload.Intensity)
	}

	intensityDistributionCounter.WithLabelValues(string(stored)).Inc()

	computed := h.classifier.Classify(payload.Name)
	if computed != stored {
		driftCounter.WithLabelValues(string(stored), string(computed)).Inc()
		h.logger.Printf("label drift (template=%s, tenant=%s): stored=%s computed=%s", payload.TemplateID, payload.TenantID, stored, computed)
	}
	return nil
}
