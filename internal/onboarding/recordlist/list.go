// Package recordlist edits an ordered list of structured records. A blank
// record may be appended once the last one is complete, and deleting never
// removes the final record.
//
// Every mutation installs a fresh slice. A slice previously returned by Items
// is never written to again, so callers may hold it as a snapshot.
package recordlist

import (
	"encoding/json"
)

// Schema binds a record type to its behaviour.
type Schema[T any] struct {
	// New returns a record with every field at its default.
	New func() T
	// Complete gates whether another record may follow.
	Complete func(T) bool
	// Set returns a copy of the record with one named field written.
	Set func(rec T, field, value string) (T, error)
}

// Editor is the type-erased view of a List used where the record type is
// chosen at runtime (one HTTP route serves every section).
type Editor interface {
	Len() int
	CanAdd() bool
	CanDelete() bool
	Add() bool
	Delete() bool
	Update(index int, field, value string) (bool, error)
}

// List is an ordered sequence of records of one type.
type List[T any] struct {
	schema Schema[T]
	items  []T
}

// New returns a list seeded with one blank record.
func New[T any](schema Schema[T]) *List[T] {
	return &List[T]{schema: schema, items: []T{schema.New()}}
}

// Empty returns a list with no records. Add is always enabled on it.
func Empty[T any](schema Schema[T]) *List[T] {
	return &List[T]{schema: schema}
}

// Len returns the number of records.
func (l *List[T]) Len() int { return len(l.items) }

// Items returns the current records. The slice must not be modified.
func (l *List[T]) Items() []T { return l.items }

// At returns the record at index, if any.
func (l *List[T]) At(index int) (T, bool) {
	if index < 0 || index >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[index], true
}

// CanAdd reports whether Add would append.
func (l *List[T]) CanAdd() bool {
	if len(l.items) == 0 {
		return true
	}
	return l.schema.Complete(l.items[len(l.items)-1])
}

// Add appends a blank record if the last record is complete.
func (l *List[T]) Add() bool {
	if !l.CanAdd() {
		return false
	}
	next := make([]T, len(l.items), len(l.items)+1)
	copy(next, l.items)
	l.items = append(next, l.schema.New())
	return true
}

// CanDelete reports whether Delete would remove a record.
func (l *List[T]) CanDelete() bool {
	return len(l.items) > 1
}

// Delete removes the last record. The list never shrinks below one record.
func (l *List[T]) Delete() bool {
	if !l.CanDelete() {
		return false
	}
	next := make([]T, len(l.items)-1)
	copy(next, l.items)
	l.items = next
	return true
}

// Update replaces the record at index with a copy that has field set to value.
// An out-of-range index is a no-op reported as false with no error.
func (l *List[T]) Update(index int, field, value string) (bool, error) {
	if index < 0 || index >= len(l.items) {
		return false, nil
	}
	rec, err := l.schema.Set(l.items[index], field, value)
	if err != nil {
		return false, err
	}
	next := make([]T, len(l.items))
	copy(next, l.items)
	next[index] = rec
	l.items = next
	return true, nil
}

// MarshalJSON encodes the records only; the Schema is reattached by the owner.
func (l *List[T]) MarshalJSON() ([]byte, error) {
	items := l.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON replaces the records, keeping the Schema already bound to l.
// An empty or null array decodes to one blank record.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if len(items) == 0 && l.schema.New != nil {
		items = []T{l.schema.New()}
	}
	l.items = items
	return nil
}
