/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"

	"github.com/ragamala/catalogstore/keys"
)

// Binding associates a Go entity type with its kind tag and key builder.
// The builder computes the full six-index key tuple from entity content,
// so the repository owns row encoding without knowing domain fields.
type Binding[T any] struct {
	// Kind is the entity kind tag written to every row.
	Kind keys.Kind
	// Keys builds the key tuple for an entity instance.
	Keys func(entity *T) (keys.KeyTuple, error)
}

var (
	bindingRegistry = make(map[reflect.Type]any)
	mu              sync.RWMutex
)

// RegisterBinding associates type T with its key binding. Registering a type
// twice panics to prevent accidental overrides.
func RegisterBinding[T any](b Binding[T]) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	if _, exists := bindingRegistry[t]; exists {
		panic("registry: binding already registered for " + t.String())
	}
	bindingRegistry[t] = b
}

// GetBinding retrieves the binding for type T, if any.
func GetBinding[T any]() (Binding[T], bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	b, ok := bindingRegistry[t]
	if !ok {
		return Binding[T]{}, false
	}
	return b.(Binding[T]), true
}
