// Package kvstore provides the keyed store used for operator settings and
// feature flags, with change subscriptions.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kvstore: key not found")

// Store is a small keyed byte store. Subscribers are called after every
// successful Set of their key with the new value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Subscribe(key string, fn func(value []byte)) (cancel func())
}

type subscribers struct {
	next int
	fns  map[string]map[int]func([]byte)
}

func newSubscribers() subscribers {
	return subscribers{fns: make(map[string]map[int]func([]byte))}
}

// add must be called with the owner's lock held.
func (s *subscribers) add(key string, fn func([]byte)) int {
	s.next++
	if s.fns[key] == nil {
		s.fns[key] = make(map[int]func([]byte))
	}
	s.fns[key][s.next] = fn
	return s.next
}

func (s *subscribers) remove(key string, id int) {
	delete(s.fns[key], id)
	if len(s.fns[key]) == 0 {
		delete(s.fns, key)
	}
}

func (s *subscribers) snapshot(key string) []func([]byte) {
	out := make([]func([]byte), 0, len(s.fns[key]))
	for _, fn := range s.fns[key] {
		out = append(out, fn)
	}
	return out
}
