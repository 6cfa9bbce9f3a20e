package store

import (
	"time"

	"github.com/vango-dev/skellyview/pkg/reactive"
)

// Change describes one field of one store taking a new value.
type Change struct {
	Store string    `json:"store"`
	Field string    `json:"field"`
	Value any       `json:"value"`
	At    time.Time `json:"at"`
}

// emitFunc receives field changes. A nil emitFunc discards them.
type emitFunc func(field string, value any)

// bindField forwards every change of sig to emit under the given field name.
// present converts the stored value into its reported form.
func bindField[T any](sig *reactive.Signal[T], field string, emit emitFunc, present func(T) any) {
	if emit == nil {
		return
	}
	sig.Subscribe(func(v T) {
		if present != nil {
			emit(field, present(v))
			return
		}
		emit(field, v)
	})
}

// Store is the common read-only view of every store in the registry.
type Store interface {
	// Name returns the registry name of the store.
	Name() string

	// Fields returns the current value of every field, keyed by field name.
	Fields() map[string]any
}
