package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChanged EventType = "balance_changed"
	EventTypeUserRegistered EventType = "user_registered"
	EventTypeReferralBonus  EventType = "referral_bonus"
	EventTypeCodeRedeemed   EventType = "code_redeemed"
	EventTypeCodesExpired   EventType = "codes_expired"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeReason describes why a balance moved
type BalanceChangeReason string

const (
	ReasonAdminGift    BalanceChangeReason = "admin_gift"
	ReasonAdminRemoval BalanceChangeReason = "admin_removal"
	ReasonBulkGift     BalanceChangeReason = "bulk_gift"
	ReasonLookup       BalanceChangeReason = "lookup"
	ReasonRedemption   BalanceChangeReason = "redemption"
	ReasonReferral     BalanceChangeReason = "referral"
	ReasonReset        BalanceChangeReason = "reset"
)

// BalanceChangedEvent represents a committed credit delta
type BalanceChangedEvent struct {
	UserID int64               `json:"user_id"`
	Delta  int64               `json:"delta"`
	Reason BalanceChangeReason `json:"reason"`
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// UserRegisteredEvent represents a new user joining
type UserRegisteredEvent struct {
	UserID         int64  `json:"user_id"`
	Username       string `json:"username,omitempty"`
	ReferrerID     *int64 `json:"referrer_id,omitempty"`
	InitialCredits int64  `json:"initial_credits"`
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// ReferralBonusEvent is emitted when a referrer was paid for a new user
type ReferralBonusEvent struct {
	ReferrerID  int64  `json:"referrer_id"`
	NewUserID   int64  `json:"new_user_id"`
	NewUsername string `json:"new_username,omitempty"`
	Bonus       int64  `json:"bonus"`
}

func (e ReferralBonusEvent) Type() EventType {
	return EventTypeReferralBonus
}

// CodeRedeemedEvent represents a successful code claim
type CodeRedeemedEvent struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

func (e CodeRedeemedEvent) Type() EventType {
	return EventTypeCodeRedeemed
}

// CodesExpiredEvent is emitted when a sweep deactivated codes
type CodesExpiredEvent struct {
	Count int64 `json:"count"`
}

func (e CodesExpiredEvent) Type() EventType {
	return EventTypeCodesExpired
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

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range []EventType{
		EventTypeBalanceChanged,
		EventTypeUserRegistered,
		EventTypeReferralBonus,
		EventTypeCodeRedeemed,
		EventTypeCodesExpired,
	} {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks the ledger
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for commit
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Emission outlives the transaction context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		if b.real != nil {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
