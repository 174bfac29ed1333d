package messages

import (
	"encoding/json"
	"time"
)

// =============================================================================
// CORE INTERFACES
// =============================================================================

// Message represents any message in the system
type Message interface {
	Subject() string
	Validate() error
}

// Command represents an input that requests something to happen
type Command interface {
	Message
	IsCommand()
}

// Event represents something that has happened
type Event interface {
	Message
	IsEvent()
	Timestamp() time.Time
}

// =============================================================================
// SUBJECT CONSTANTS
// =============================================================================

const (
	// Commands
	ConfigReplaceSubject = "command.config.replace"

	// Events
	ConfigReplacedSubject     = "event.config.replaced"
	ConfigEntryAddedSubject   = "event.config.entry.added"
	ConfigEntryRemovedSubject = "event.config.entry.removed"

	// ConfigEventsPattern matches every configuration event.
	ConfigEventsPattern = "event.config.>"
)

// =============================================================================
// COMMANDS
// =============================================================================

// ConfigReplaceCommand carries a full document to store.
type ConfigReplaceCommand struct {
	Document      json.RawMessage `json:"document"`
	Source        string          `json:"source,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

func (c ConfigReplaceCommand) Subject() string { return ConfigReplaceSubject }
func (c ConfigReplaceCommand) IsCommand()      {}
func (c ConfigReplaceCommand) Validate() error {
	return validateConfigReplaceCommand(c)
}

// =============================================================================
// EVENTS
// =============================================================================

// ConfigReplacedEvent reports a replaced document.
type ConfigReplacedEvent struct {
	Source        string    `json:"source"`
	Entries       []string  `json:"entries"`
	Size          int       `json:"size"`
	ReplacedAt    time.Time `json:"replaced_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func (e ConfigReplacedEvent) Subject() string      { return ConfigReplacedSubject }
func (e ConfigReplacedEvent) IsEvent()             {}
func (e ConfigReplacedEvent) Timestamp() time.Time { return e.ReplacedAt }
func (e ConfigReplacedEvent) Validate() error      { return nil }

// EntryAddedEvent reports a collection entry added from an editor session.
type EntryAddedEvent struct {
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
	AddedAt   time.Time `json:"added_at"`
}

func (e EntryAddedEvent) Subject() string      { return ConfigEntryAddedSubject }
func (e EntryAddedEvent) IsEvent()             {}
func (e EntryAddedEvent) Timestamp() time.Time { return e.AddedAt }
func (e EntryAddedEvent) Validate() error      { return validateEntryName(e.Name) }

// EntryRemovedEvent reports a collection entry removed from an editor
// session.
type EntryRemovedEvent struct {
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
	RemovedAt time.Time `json:"removed_at"`
}

func (e EntryRemovedEvent) Subject() string      { return ConfigEntryRemovedSubject }
func (e EntryRemovedEvent) IsEvent()             {}
func (e EntryRemovedEvent) Timestamp() time.Time { return e.RemovedAt }
func (e EntryRemovedEvent) Validate() error      { return validateEntryName(e.Name) }
