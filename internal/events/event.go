// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	platformevents "leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = platformevents.Event
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	BaseEvent   = platformevents.BaseEvent
	InMemoryBus = platformevents.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = platformevents.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Company string    `json:"company"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadStageChanged is published when the pipeline engine moves a lead to a
// different stage.
type LeadStageChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	OldStage string    `json:"oldStage"`
	NewStage string    `json:"newStage"`
	Actor    string    `json:"actor"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadQualified is published after a successful AI qualification run.
type LeadQualified struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Score  float64   `json:"score"`
}

func (e LeadQualified) EventName() string { return "leads.qualified" }

// OutreachGenerated is published when an outreach draft has been produced.
type OutreachGenerated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Subject string    `json:"subject"`
}

func (e OutreachGenerated) EventName() string { return "leads.outreach.generated" }
