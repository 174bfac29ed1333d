package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewConfigReplaceCommand creates a replace command for doc
func NewConfigReplaceCommand(doc []byte, source string) *ConfigReplaceCommand {
	return &ConfigReplaceCommand{Document: json.RawMessage(doc), Source: source}
}

// WithCorrelation adds correlation ID to the replace command
func (c *ConfigReplaceCommand) WithCorrelation(id string) *ConfigReplaceCommand {
	c.CorrelationID = id
	return c
}

// NewConfigReplacedEvent creates a replaced event for a document of size
// bytes holding the given collection entries
func NewConfigReplacedEvent(source string, size int, entries []string) *ConfigReplacedEvent {
	if entries == nil {
		entries = []string{}
	}
	return &ConfigReplacedEvent{
		Source:     source,
		Entries:    entries,
		Size:       size,
		ReplacedAt: time.Now(),
	}
}

// WithCorrelation adds correlation ID to the replaced event
func (e *ConfigReplacedEvent) WithCorrelation(id string) *ConfigReplacedEvent {
	e.CorrelationID = id
	return e
}

// NewEntryAddedEvent creates an entry added event
func NewEntryAddedEvent(name, sessionID string) *EntryAddedEvent {
	return &EntryAddedEvent{Name: name, SessionID: sessionID, AddedAt: time.Now()}
}

// NewEntryRemovedEvent creates an entry removed event
func NewEntryRemovedEvent(name, sessionID string) *EntryRemovedEvent {
	return &EntryRemovedEvent{Name: name, SessionID: sessionID, RemovedAt: time.Now()}
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateConfigReplaceCommand(c ConfigReplaceCommand) error {
	doc := strings.TrimSpace(string(c.Document))
	if doc == "" {
		return fmt.Errorf("document is required")
	}
	if !strings.HasPrefix(doc, "{") {
		return fmt.Errorf("document must be a JSON object")
	}
	return nil
}

func validateEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// =============================================================================
// PUBLISHER
// =============================================================================

// streamPublisher is the part of jetstream.JetStream the publisher needs
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher provides type-safe message publishing
type Publisher struct {
	js streamPublisher
}

// NewPublisher creates a new type-safe publisher
func NewPublisher(js streamPublisher) *Publisher {
	return &Publisher{js: js}
}

// PublishCommand publishes a command with validation
func (p *Publisher) PublishCommand(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	_, err = p.js.Publish(ctx, cmd.Subject(), data)
	if err != nil {
		return fmt.Errorf("publish command: %w", err)
	}

	return nil
}

// PublishEvent publishes an event with validation
func (p *Publisher) PublishEvent(ctx context.Context, evt Event) error {
	if err := evt.Validate(); err != nil {
		return fmt.Errorf("event validation failed: %w", err)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, evt.Subject(), data)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// =============================================================================
// DECODING
// =============================================================================

// DecodeEvent parses an event received on subject
func DecodeEvent(subject string, data []byte) (Event, error) {
	var evt Event
	switch subject {
	case ConfigReplacedSubject:
		evt = &ConfigReplacedEvent{}
	case ConfigEntryAddedSubject:
		evt = &EntryAddedEvent{}
	case ConfigEntryRemovedSubject:
		evt = &EntryRemovedEvent{}
	default:
		return nil, fmt.Errorf("unknown event subject: %s", subject)
	}
	if err := json.Unmarshal(data, evt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", subject, err)
	}
	return evt, nil
}

// DecodeReplaceCommand parses a replace command
func DecodeReplaceCommand(data []byte) (*ConfigReplaceCommand, error) {
	if err := validateEnvelope(data); err != nil {
		return nil, err
	}
	var cmd ConfigReplaceCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("decode replace command: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// SubjectPatterns returns all known subject patterns
func SubjectPatterns() map[string]string {
	return map[string]string{
		"config.replace":       ConfigReplaceSubject,
		"config.replaced":      ConfigReplacedSubject,
		"config.entry.added":   ConfigEntryAddedSubject,
		"config.entry.removed": ConfigEntryRemovedSubject,
	}
}
