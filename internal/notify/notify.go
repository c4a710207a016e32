package notify

import (
	"context"
	"log/slog"
)

const (
	// KindAgentCreated indicates a new agent was provisioned.
	KindAgentCreated = "agent_created"
	// KindAgentFrozen indicates an owner emergency-stopped an agent.
	KindAgentFrozen = "agent_frozen"
	// KindAgentUnfrozen indicates an owner re-enabled an agent.
	KindAgentUnfrozen = "agent_unfrozen"
	// KindAgentClosed indicates an agent was closed and its vault returned.
	KindAgentClosed = "agent_closed"
	// KindVaultSpend indicates a delegate spend against an agent vault.
	KindVaultSpend = "vault_spend"
)

// Event describes a lifecycle notification payload.
type Event struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers lifecycle events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LoggerNotifier is a stub implementation that writes events to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, event Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("event", "kind", event.Kind, "destination", event.Destination, "body", event.Body)
	return nil
}
