package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func driftMessage(t *testing.T, eventType string, payload map[string]string) Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return Message{
		Topic:     "template_events",
		EventType: eventType,
		TenantID:  payload["tenant_id"],
		Payload:   body,
	}
}

func TestDriftHandlerAcceptsMatchingLabel(t *testing.T) {
	handler := NewDriftHandler(nil)

	msg := driftMessage(t, "template.created", map[string]string{
		"template_id": "tpl-1",
		"tenant_id":   "tenant-1",
		"name":        "Power Yoga",
		"intensity":   "POWER",
	})

	require.NoError(t, handler.Handle(context.Background(), msg))
}

func TestDriftHandlerToleratesMismatch(t *testing.T) {
	// A mismatch is drift to report, not a handler failure; the message
	// must still commit.
	handler := NewDriftHandler(nil)

	msg := driftMessage(t, "template.classified", map[string]string{
		"template_id": "tpl-2",
		"tenant_id":   "tenant-1",
		"name":        "Morning Yoga Stretch",
		"intensity":   "AKTIV",
	})

	require.NoError(t, handler.Handle(context.Background(), msg))
}

func TestDriftHandlerRejectsUnknownIntensity(t *testing.T) {
	handler := NewDriftHandler(nil)

	msg := driftMessage(t, "template.created", map[string]string{
		"template_id": "tpl-3",
		"tenant_id":   "tenant-1",
		"name":        "Leg Day",
		"intensity":   "EXTREME",
	})

	require.Error(t, handler.Handle(context.Background(), msg))
}

func TestDriftHandlerRequiresTemplateID(t *testing.T) {
	handler := NewDriftHandler(nil)

	msg := driftMessage(t, "template.created", map[string]string{
		"tenant_id": "tenant-1",
		"name":      "Leg Day",
		"intensity": "AKTIV",
	})

	require.Error(t, handler.Handle(context.Background(), msg))
}

func TestDriftHandlerIgnoresOtherEventTypes(t *testing.T) {
	handler := NewDriftHandler(nil)

	msg := Message{
		Topic:     "template_events",
		EventType: "template.deleted",
		Payload:   json.RawMessage(`not even json`),
	}

	require.NoError(t, handler.Handle(context.Background(), msg))
}
