// Package register lets packages attach setup hooks from init, to be resolved
// later by the component that owns the key.
package register

import "sync"

type Handler[T any] func(T)

var (
	mu       sync.RWMutex
	handlers = map[any][]any{}
)

// RegisterFunc appends handler under key. Handlers resolve in registration order.
func RegisterFunc[T any](key any, handler Handler[T]) {
	mu.Lock()
	defer mu.Unlock()
	handlers[key] = append(handlers[key], handler)
}

// ResolveFuncHandlers returns the handlers of key that accept a T, skipping any other type.
func ResolveFuncHandlers[T any](key any) []Handler[T] {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Handler[T], 0, len(handlers[key]))
	for _, v := range handlers[key] {
		if h, ok := v.(Handler[T]); ok {
			result = append(result, h)
		}
	}
	return result
}
