package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscribers
func (m *Manager) Bus() *Bus {
	return m.bus
}

// EmitTyped emits an event with typed data to the bus and logs it.
// A nil manager is a no-op so services can run without an event pipeline.
func (m *Manager) EmitTyped(module string, data EventData) {
	if m == nil || data == nil {
		return
	}

	event := m.bus.Publish(Event{
		Type:   data.EventType(),
		Module: module,
		Data:   convertEventDataToMap(data),
	})

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(event.Type)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}
