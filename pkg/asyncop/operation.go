// Package asyncop tracks the loading, error and data state of one call site.
package asyncop

import (
	"context"
	"reflect"
	"sync"

	"github.com/openkcm/fitness-client/internal/serviceerr"
)

// Snapshot is a consistent view of an Operation.
type Snapshot[T any] struct {
	Data       T
	IsLoading  bool
	Error      string
	Code       serviceerr.Code
	StatusCode int
	IsEmpty    bool
	Retryable  bool
}

// Failed reports whether the last execution ended in an error.
func (s Snapshot[T]) Failed() bool {
	return s.Error != ""
}

type Operation[T any] struct {
	mu      sync.Mutex
	initial T
	data    T
	loading bool
	err     *serviceerr.Error
}

func New[T any](initial T) *Operation[T] {
	return &Operation[T]{
		initial: initial,
		data:    initial,
	}
}

type executeOptions[T any] struct {
	onSuccess func(T)
	onError   func(*serviceerr.Error)
}

type Option[T any] func(*executeOptions[T])

// OnSuccess runs fn with the result after the state was updated.
func OnSuccess[T any](fn func(T)) Option[T] {
	return func(o *executeOptions[T]) { o.onSuccess = fn }
}

// OnError runs fn with the classified error after the state was updated.
func OnError[T any](fn func(*serviceerr.Error)) Option[T] {
	return func(o *executeOptions[T]) { o.onError = fn }
}

// Execute runs fn once. Loading is set and any previous error cleared before
// the call; afterwards either data or the classified error is stored. The
// previous data is kept when fn fails.
func (o *Operation[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option[T]) (T, error) {
	var options executeOptions[T]
	for _, opt := range opts {
		opt(&options)
	}

	o.SetLoading(true)

	result, err := fn(ctx)
	if err != nil {
		classified := o.SetError(err)
		if options.onError != nil {
			options.onError(classified)
		}

		var zero T
		return zero, classified
	}

	o.SetData(result)
	if options.onSuccess != nil {
		options.onSuccess(result)
	}

	return result, nil
}

// SetLoading sets the loading flag. Starting to load clears the error.
func (o *Operation[T]) SetLoading(loading bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.loading = loading
	if loading {
		o.err = nil
	}
}

// SetData stores a successful result.
func (o *Operation[T]) SetData(data T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.data = data
	o.loading = false
	o.err = nil
}

// SetError classifies err and stores it. Data is left untouched.
func (o *Operation[T]) SetError(err error) *serviceerr.Error {
	classified := serviceerr.Classify(err)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.err = classified
	o.loading = false

	return classified
}

// Reset restores the initial state.
func (o *Operation[T]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.data = o.initial
	o.loading = false
	o.err = nil
}

func (o *Operation[T]) Snapshot() Snapshot[T] {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot[T]{
		Data:      o.data,
		IsLoading: o.loading,
		IsEmpty:   isEmpty(o.data),
	}
	if o.err != nil {
		s.Error = o.err.Description
		s.Code = o.err.Err
		s.StatusCode = o.err.StatusCode
		s.Retryable = o.err.Retryable()
	}

	return s
}

// isEmpty is true for nil and for zero-length slices, maps and arrays.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
