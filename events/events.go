package events

import (
	"context"
	"sync"

	"fightbook/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWagerPlaced         EventType = "wager_placed"
	EventTypeWagerSettled        EventType = "wager_settled"
	EventTypeWagerRefunded       EventType = "wager_refunded"
	EventTypeSettlementCompleted EventType = "settlement_completed"
	EventTypeRefundCompleted     EventType = "refund_completed"
	EventTypeAccountCreated      EventType = "account_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WagerPlacedEvent is published when a wager is accepted and the stake debited.
type WagerPlacedEvent struct {
	AccountID       string
	WagerID         int64
	EventID         string
	FightID         string
	Stake           int64
	PotentialPayout int64
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerSettledEvent is published when a wager resolves to won or lost.
type WagerSettledEvent struct {
	AccountID string
	WagerID   int64
	EventID   string
	FightID   string
	Status    models.WagerStatus
	Payout    int64
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// WagerRefundedEvent is published when a wager's stake is returned.
type WagerRefundedEvent struct {
	AccountID string
	WagerID   int64
	EventID   string
	FightID   string
	Amount    int64
	Reason    string
}

func (e WagerRefundedEvent) Type() EventType {
	return EventTypeWagerRefunded
}

// SettlementCompletedEvent summarizes a settlement engine run for an event.
// Consumed by the notification collaborator; the engine itself sends nothing.
type SettlementCompletedEvent struct {
	EventID      string
	SettledCount int
	WonCount     int
	LostCount    int
	PaidOut      int64
}

func (e SettlementCompletedEvent) Type() EventType {
	return EventTypeSettlementCompleted
}

// RefundCompletedEvent summarizes a refund engine run for an event.
type RefundCompletedEvent struct {
	EventID          string
	BetsRefunded     int
	AmountRefunded   int64
	AccountsAffected int
}

func (e RefundCompletedEvent) Type() EventType {
	return EventTypeRefundCompleted
}

// AccountCreatedEvent is published when an account is lazily bootstrapped.
type AccountCreatedEvent struct {
	AccountID       string
	StartingBalance int64
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously so a slow notifier never blocks the engine
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work. Events are
// flushed to the underlying bus only after the database commit succeeds and
// discarded on rollback, so observers never see an event for a write that
// did not land.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit. Events are emitted on a fresh
// context because the transaction's context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
