// Package notify is the best-effort notification sink: outcomes are
// published for other hub automations to react to, and failures are
// logged, never surfaced.
package notify

// Sink publishes an event payload under a topic relative to the
// configured prefix. Implementations must never block the caller on
// delivery and must never return an error.
type Sink interface {
	Publish(topic string, payload any)
}

// Nop is a Sink that discards everything, used when notifications
// are disabled.
type Nop struct{}

// Publish implements Sink.
func (Nop) Publish(string, any) {}
