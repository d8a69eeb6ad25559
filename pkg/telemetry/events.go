package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event in the versioning engine.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// VersionID is the questionnaire version involved, if applicable.
	VersionID string `json:"version_id,omitempty"`

	// StepNumber is the step involved, if applicable.
	StepNumber int `json:"step_number,omitempty"`

	// QuestionID is the question involved, if applicable.
	QuestionID string `json:"question_id,omitempty"`

	// Actor is the user that triggered the event.
	Actor string `json:"actor,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for the version lifecycle and mutation engine.
const (
	EventTypeDraftCreated       = "draft.created"
	EventTypeDraftDiscarded     = "draft.discarded"
	EventTypeVersionPublished   = "version.published"
	EventTypeVersionRestored    = "version.restored"
	EventTypeQuestionCreated    = "question.created"
	EventTypeQuestionUpdated    = "question.updated"
	EventTypeQuestionDeleted    = "question.deleted"
	EventTypeQuestionsReordered = "questions.reordered"
	EventTypeStepUpdated        = "step.updated"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	ep.deliverEvent(event)
	return nil
}

// PublishDraftCreated publishes a draft creation event.
func (ep *EventPublisher) PublishDraftCreated(versionID, sourceVersionID, actor string) error {
	return ep.Publish(Event{
		Type:      EventTypeDraftCreated,
		VersionID: versionID,
		Actor:     actor,
		Message:   fmt.Sprintf("Draft %s created by %s", versionID, actor),
		Data: map[string]interface{}{
			"source_version_id": sourceVersionID,
		},
	})
}

// PublishDraftDiscarded publishes a draft discard event.
func (ep *EventPublisher) PublishDraftDiscarded(versionID, actor string) error {
	return ep.Publish(Event{
		Type:      EventTypeDraftDiscarded,
		VersionID: versionID,
		Actor:     actor,
		Message:   fmt.Sprintf("Draft %s discarded by %s", versionID, actor),
	})
}

// PublishVersionPublished publishes a publish event, including the
// archived predecessor when one exists.
func (ep *EventPublisher) PublishVersionPublished(versionID string, versionNumber int, archivedVersionID, actor string) error {
	data := map[string]interface{}{
		"version_number": versionNumber,
	}
	if archivedVersionID != "" {
		data["archived_version_id"] = archivedVersionID
	}
	return ep.Publish(Event{
		Type:      EventTypeVersionPublished,
		VersionID: versionID,
		Actor:     actor,
		Message:   fmt.Sprintf("Version %s published as v%d by %s", versionID, versionNumber, actor),
		Data:      data,
	})
}

// PublishVersionRestored publishes a restore event.
func (ep *EventPublisher) PublishVersionRestored(draftID, sourceVersionID, actor string) error {
	return ep.Publish(Event{
		Type:      EventTypeVersionRestored,
		VersionID: draftID,
		Actor:     actor,
		Message:   fmt.Sprintf("Version %s restored into draft %s by %s", sourceVersionID, draftID, actor),
		Data: map[string]interface{}{
			"source_version_id": sourceVersionID,
		},
	})
}

// PublishQuestionMutation publishes a question-level mutation event.
func (ep *EventPublisher) PublishQuestionMutation(eventType, versionID string, stepNumber int, questionID, actor string) error {
	return ep.Publish(Event{
		Type:       eventType,
		VersionID:  versionID,
		StepNumber: stepNumber,
		QuestionID: questionID,
		Actor:      actor,
		Message:    fmt.Sprintf("%s on version %s step %d", eventType, versionID, stepNumber),
	})
}

// PublishStepUpdated publishes a step metadata update event.
func (ep *EventPublisher) PublishStepUpdated(versionID string, stepNumber int, actor string) error {
	return ep.Publish(Event{
		Type:       EventTypeStepUpdated,
		VersionID:  versionID,
		StepNumber: stepNumber,
		Actor:      actor,
		Message:    fmt.Sprintf("Step %d updated on version %s", stepNumber, versionID),
	})
}

// Subscribe registers a subscriber with an optional filter.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// processEvents drains the buffer and delivers events in batches.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	for {
		select {
		case event := <-ep.buffer:
			ep.deliverEvent(event)
		case <-ep.ctx.Done():
			// Flush remaining events before shutting down
			for {
				select {
				case event := <-ep.buffer:
					ep.deliverEvent(event)
				default:
					return
				}
			}
		}
	}
}

// deliverEvent delivers an event to all subscribers.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByVersionID creates a filter that only allows events for one version.
func FilterByVersionID(versionID string) EventFilter {
	return func(event Event) bool {
		return event.VersionID == versionID
	}
}
