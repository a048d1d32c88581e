package handlers

import (
	"encoding/json"

	"onsalenow.io/analytics/internal/kafka/registry"
)

// Register is a convenience alias so each domain file calls Register(...)
// instead of registry.Register(...), keeping imports minimal.
func Register(topic, eventType string, h registry.EventHandler) {
	registry.Register(topic, eventType, h)
}

// RegisterDirect registers a handler for topics that don't use eventType routing.
func RegisterDirect(topic string, h registry.EventHandler) {
	registry.Register(topic, "", h)
}

// envelope is the common wrapper used by the storefront services for Kafka messages.
type envelope struct {
	EventType string          `json:"eventType"`
	EventID   string          `json:"eventId"`
	Payload   json.RawMessage `json:"payload"`
}

// parseEnvelope decodes the envelope and, when target is non-nil, its payload.
func parseEnvelope(data []byte, target any) (*envelope, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	if target != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, target); err != nil {
			return nil, false
		}
	}
	return &env, true
}
