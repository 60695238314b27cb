package actor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Sender delivers a message to an address
type Sender interface {
	Send(ctx context.Context, from, to string, msg any) error
}

// Registry maps addresses to actors
type Registry struct {
	mu     sync.RWMutex
	actors map[string]*Actor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{actors: make(map[string]*Actor)}
}

// Register adds actors under their names, replacing previous entries
func (r *Registry) Register(actors ...*Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range actors {
		r.actors[a.Name()] = a
	}
}

// Lookup returns the actor registered at addr
func (r *Registry) Lookup(addr string) (*Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actors[addr]
	return a, ok
}

// Send is a point-to-point Tell
func (r *Registry) Send(ctx context.Context, from, to string, msg any) error {
	a, ok := r.Lookup(to)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, to)
	}
	return a.Tell(ctx, from, msg)
}

// Ask is a point-to-point Ask
func (r *Registry) Ask(ctx context.Context, from, to string, msg any, timeout time.Duration) (any, error) {
	a, ok := r.Lookup(to)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, to)
	}
	return a.Ask(ctx, from, msg, timeout)
}

// AskAs asks and type-checks the reply
func AskAs[T any](ctx context.Context, r *Registry, from, to string, msg any, timeout time.Duration) (T, error) {
	var zero T

	v, err := r.Ask(ctx, from, to, msg, timeout)
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnexpectedReply, v)
	}
	return out, nil
}
