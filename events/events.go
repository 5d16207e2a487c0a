package events

import (
	"reflect"
	"sync"
)

// EventHandler handles a published event of the generic type. A returned error stops the publication and is
// returned to the publisher.
type EventHandler[T any] func(T) error

var (
	// globalEventHandlers maps event type names to handlers which receive events of that type from every emitter.
	globalEventHandlers = make(map[string][]any)

	// globalEventHandlersLock guards globalEventHandlers.
	globalEventHandlersLock sync.RWMutex
)

// SubscribeAny adds a handler which is invoked whenever any EventEmitter publishes an event of type T. Global
// handlers live for the rest of the program, so short-lived objects should subscribe to a specific emitter instead.
func SubscribeAny[T any](callback EventHandler[T]) {
	eventType := reflect.TypeOf((*T)(nil)).Elem().String()

	globalEventHandlersLock.Lock()
	defer globalEventHandlersLock.Unlock()
	globalEventHandlers[eventType] = append(globalEventHandlers[eventType], callback)
}

// EventEmitter publishes events of the generic type to its subscribers. It is safe for concurrent use.
type EventEmitter[T any] struct {
	subscriptions []EventHandler[T]
	lock          sync.RWMutex
}

// Subscribe adds an EventHandler to the list of subscribed EventHandler objects for this emitter. When an event is
// published, the callback will be triggered with the event data.
func (e *EventEmitter[T]) Subscribe(callback EventHandler[T]) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.subscriptions = append(e.subscriptions, callback)
}

// Publish calls every handler subscribed to this emitter, then every global handler for the event type. It returns
// the first error a handler returns, in which case later handlers are not called.
func (e *EventEmitter[T]) Publish(event T) error {
	e.lock.RLock()
	subscriptions := append([]EventHandler[T]{}, e.subscriptions...)
	e.lock.RUnlock()

	for _, subscription := range subscriptions {
		if err := subscription(event); err != nil {
			return err
		}
	}

	eventType := reflect.TypeOf((*T)(nil)).Elem().String()
	globalEventHandlersLock.RLock()
	callbacks := append([]any{}, globalEventHandlers[eventType]...)
	globalEventHandlersLock.RUnlock()

	for _, callback := range callbacks {
		if err := callback.(EventHandler[T])(event); err != nil {
			return err
		}
	}
	return nil
}
