// Package events fans ledger and auth notifications out to in-process
// listeners and, when configured, to an AMQP exchange.
package events

import (
	"context"
	"sync"
	"time"

	"moneybook/internal/logger"
)

// Type names an event.
type Type string

// Auth state changes.
const (
	SignedIn    Type = "SIGNED_IN"
	SignedOut   Type = "SIGNED_OUT"
	UserCreated Type = "USER_CREATED"
)

// Ledger changes.
const (
	AccountSaved       Type = "ACCOUNT_SAVED"
	AccountDeleted     Type = "ACCOUNT_DELETED"
	AccountArchived    Type = "ACCOUNT_ARCHIVED"
	CategorySaved      Type = "CATEGORY_SAVED"
	CategoryDeleted    Type = "CATEGORY_DELETED"
	TransactionSaved   Type = "TRANSACTION_SAVED"
	TransactionDeleted Type = "TRANSACTION_DELETED"
	TransferSaved      Type = "TRANSFER_SAVED"
	TransferDeleted    Type = "TRANSFER_DELETED"
	DataImported       Type = "DATA_IMPORTED"
	DataReset          Type = "DATA_RESET"
	DataSeeded         Type = "DATA_SEEDED"
)

// IsAuth reports whether t is an auth state change.
func (t Type) IsAuth() bool {
	return t == SignedIn || t == SignedOut || t == UserCreated
}

// Event is one notification.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id"`
	ResourceID string    `json:"resource_id,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher ships events out of the process.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Listener receives events published on a Bus.
type Listener func(Event)

// Bus delivers every event to its listeners and then to the publisher.
// Publisher failures are logged and never returned to the caller.
type Bus struct {
	publisher Publisher

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewBus creates a bus. A nil publisher means Nop.
func NewBus(publisher Publisher) *Bus {
	if publisher == nil {
		publisher = Nop{}
	}
	return &Bus{publisher: publisher, listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish stamps ev and delivers it.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}

	if err := b.publisher.Publish(ctx, ev); err != nil {
		logger.Named("events").Warnw("failed to publish event",
			"type", ev.Type,
			"user_id", ev.UserID,
			"error", err,
		)
	}
}

// Close closes the publisher.
func (b *Bus) Close() error {
	return b.publisher.Close()
}
