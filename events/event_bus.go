// forge/events/event_bus.go
// Package events provides a lifecycle event bus for container activity —
// provider registration, key resolution, and scope open/close — so code
// outside the DI core can observe what a container is doing without
// coupling to container/scope/provider directly. Adapted from the
// teacher's events/event_bus.go, trimmed of its fx wiring (no dependency
// injection framework sits above forge itself) and aimed at the handful
// of lifecycle moments a container graph actually has.
package events

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Event identifies and carries data for one lifecycle occurrence.
type Event interface {
	Name() string
}

// BaseEvent is the event forge's own lifecycle hooks publish.
type BaseEvent struct {
	EventName string
	Payload   any
}

func (e BaseEvent) Name() string { return e.EventName }

// NewEvent creates an event with the given name and payload.
func NewEvent(name string, payload any) Event {
	return BaseEvent{EventName: name, Payload: payload}
}

// Well-known lifecycle event names published by container and scope.
const (
	ProviderRegistered = "forge.provider.registered"
	KeyResolved        = "forge.key.resolved"
	ScopeOpened        = "forge.scope.opened"
	ScopeClosed        = "forge.scope.closed"
)

// ProviderRegisteredPayload is BaseEvent's Payload for ProviderRegistered.
type ProviderRegisteredPayload struct {
	Container string
	Key       string
}

// KeyResolvedPayload is BaseEvent's Payload for KeyResolved.
type KeyResolvedPayload struct {
	Key string
	Err error
}

// ScopePayload is BaseEvent's Payload for ScopeOpened/ScopeClosed.
type ScopePayload struct {
	Container string
	Nested    bool
}

// HandlerMode determines how a handler is executed.
type HandlerMode int

const (
	// SyncMode runs the handler in the publisher's goroutine.
	SyncMode HandlerMode = iota
	// AsyncMode runs the handler in its own goroutine, with retries.
	AsyncMode
)

// Handler processes one event.
type Handler func(ctx context.Context, event Event) error

// HandlerConfig configures one subscription.
type HandlerConfig struct {
	Mode         HandlerMode
	MaxRetries   int
	ErrorHandler func(err error, event Event, handlerName string)
}

// DefaultHandlerConfig runs synchronously, no retries, errors go to stderr.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		Mode: SyncMode,
		ErrorHandler: func(err error, event Event, handlerName string) {
			log.Printf("forge: event %s handler %s failed: %v", event.Name(), handlerName, err)
		},
	}
}

type registeredHandler struct {
	handler Handler
	config  HandlerConfig
	name    string
}

// Bus dispatches lifecycle events to subscribed handlers. A nil *Bus is a
// valid no-op publisher, so container/scope need not branch on whether
// one was configured.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registeredHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an empty Bus.
func New() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		handlers: map[string][]registeredHandler{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe registers handler for eventName with the default configuration.
func (b *Bus) Subscribe(eventName string, handler Handler) {
	b.SubscribeWithConfig(eventName, handler, DefaultHandlerConfig(), "")
}

// SubscribeWithConfig registers handler for eventName with a custom
// configuration and an optional diagnostic name.
func (b *Bus) SubscribeWithConfig(eventName string, handler Handler, config HandlerConfig, handlerName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if config.ErrorHandler == nil {
		config.ErrorHandler = DefaultHandlerConfig().ErrorHandler
	}
	if handlerName == "" {
		handlerName = fmt.Sprintf("%p", handler)
	}
	b.handlers[eventName] = append(b.handlers[eventName], registeredHandler{
		handler: handler,
		config:  config,
		name:    handlerName,
	})
}

// Publish dispatches event to every handler subscribed to its name. A nil
// Bus publishes nothing. Sync handlers' errors are collected and
// returned; async handlers retry per their config and otherwise report
// through ErrorHandler only.
func (b *Bus) Publish(ctx context.Context, event Event) []error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	handlers := append([]registeredHandler(nil), b.handlers[event.Name()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		switch h.config.Mode {
		case SyncMode:
			if err := b.executeHandler(ctx, h, event); err != nil {
				errs = append(errs, err)
				if h.config.ErrorHandler != nil {
					h.config.ErrorHandler(err, event, h.name)
				}
			}
		case AsyncMode:
			go func(h registeredHandler) {
				err := b.executeHandler(ctx, h, event)
				for retries := 0; err != nil && retries < h.config.MaxRetries; retries++ {
					err = b.executeHandler(ctx, h, event)
				}
				if err != nil && h.config.ErrorHandler != nil {
					h.config.ErrorHandler(err, event, h.name)
				}
			}(h)
		}
	}
	return errs
}

func (b *Bus) executeHandler(ctx context.Context, h registeredHandler, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.ctx.Done():
		return b.ctx.Err()
	default:
	}
	return h.handler(ctx, event)
}

// Close stops any in-flight async retries from starting further work.
func (b *Bus) Close() {
	if b != nil && b.cancel != nil {
		b.cancel()
	}
}
