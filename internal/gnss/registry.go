package gnss

import (
	"fmt"
	"sort"
	"time"
)

// Registry maps message keys of one protocol to decoder factories. It is
// filled during setup and then sealed; lookups after Seal need no locking.
type Registry[K comparable] struct {
	proto   Protocol
	entries map[K]Factory
	sealed  bool
}

func NewRegistry[K comparable](p Protocol) *Registry[K] {
	return &Registry[K]{proto: p, entries: make(map[K]Factory)}
}

func (r *Registry[K]) Protocol() Protocol { return r.proto }

// Register adds a factory. Duplicate keys are a setup error.
func (r *Registry[K]) Register(key K, f Factory) error {
	if r.sealed {
		return fmt.Errorf("%w: %s key %v", ErrSealed, r.proto, key)
	}
	if f == nil {
		return fmt.Errorf("%w: %s key %v", ErrNilFactory, r.proto, key)
	}
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %s key %v", ErrDuplicateKey, r.proto, key)
	}
	r.entries[key] = f
	return nil
}

// MustRegister is Register for static tables; it panics on a setup error.
func (r *Registry[K]) MustRegister(key K, f Factory) {
	if err := r.Register(key, f); err != nil {
		panic(err)
	}
}

// Seal makes the registry read-only.
func (r *Registry[K]) Seal() *Registry[K] {
	r.sealed = true
	return r
}

func (r *Registry[K]) Len() int { return len(r.entries) }

func (r *Registry[K]) Has(key K) bool {
	_, ok := r.entries[key]
	return ok
}

// Keys returns the registered keys ordered by their printed form.
func (r *Registry[K]) Keys() []K {
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// Dispatch decodes body with the factory registered for key. label is the
// key as it should appear in errors. A missing key yields
// UnknownMessageType; a decoder error or panic yields DecodeFailure.
func (r *Registry[K]) Dispatch(key K, label string, body []byte, now time.Time) (msg Message, perr *ParseError) {
	f, ok := r.entries[key]
	if !ok {
		return nil, NewError(r.proto, KindUnknownMessageType, label, nil)
	}
	defer func() {
		if rec := recover(); rec != nil {
			msg = nil
			perr = Errorf(r.proto, KindDecodeFailure, label, "panic: %v", rec)
		}
	}()
	d := f()
	if d == nil {
		return nil, Errorf(r.proto, KindDecodeFailure, label, "factory returned nil")
	}
	if err := d.Decode(body, now); err != nil {
		return nil, NewError(r.proto, KindDecodeFailure, label, err)
	}
	return d, nil
}
