// Package actor runs single-threaded agents behind FIFO mailboxes.
// A handler runs to completion before the next envelope is dequeued, so
// agent state needs no locks.
package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTimeout is returned by Ask when no reply arrives in time
	ErrTimeout = errors.New("actor: ask timed out")
	// ErrStopped is returned when the receiving actor is no longer running
	ErrStopped = errors.New("actor: stopped")
	// ErrUnknownAddress is returned for unregistered destinations
	ErrUnknownAddress = errors.New("actor: unknown address")
	// ErrUnexpectedReply is returned by AskAs when the reply has another type
	ErrUnexpectedReply = errors.New("actor: unexpected reply type")
)

// DefaultMailboxSize is used when New gets a non-positive size
const DefaultMailboxSize = 256

// Envelope carries one message and its sender
type Envelope struct {
	From string
	Msg  any

	reply chan any
}

// IsAsk reports whether the sender is waiting for a Reply
func (e Envelope) IsAsk() bool {
	return e.reply != nil
}

// Reply answers an Ask. It never blocks; replies to Tell are discarded.
func (e Envelope) Reply(v any) {
	if e.reply == nil {
		return
	}
	select {
	case e.reply <- v:
	default:
	}
}

// Handler processes envelopes for one actor
type Handler interface {
	Receive(ctx context.Context, env Envelope)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, env Envelope)

func (f HandlerFunc) Receive(ctx context.Context, env Envelope) { f(ctx, env) }

// Starter is implemented by handlers that load state before the first message
type Starter interface {
	Start(ctx context.Context)
}

type timer struct {
	interval time.Duration
	msg      any
}

// Actor owns a mailbox and a handler
type Actor struct {
	name    string
	handler Handler
	inbox   chan Envelope
	done    chan struct{}
	once    sync.Once
	timers  []timer
	logger  zerolog.Logger
}

// New creates an actor. Call Run to start processing.
func New(name string, handler Handler, mailboxSize int) *Actor {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Actor{
		name:    name,
		handler: handler,
		inbox:   make(chan Envelope, mailboxSize),
		done:    make(chan struct{}),
		logger:  log.With().Str("component", "actor").Str("agent", name).Logger(),
	}
}

// Name returns the actor address
func (a *Actor) Name() string {
	return a.name
}

// Every delivers msg to the actor itself on each interval tick. Ticks go
// through the mailbox and are serialized with every other message.
// It must be called before Run.
func (a *Actor) Every(interval time.Duration, msg any) {
	if interval <= 0 {
		return
	}
	a.timers = append(a.timers, timer{interval: interval, msg: msg})
}

// Run processes the mailbox until ctx is done
func (a *Actor) Run(ctx context.Context) {
	defer a.once.Do(func() { close(a.done) })

	if s, ok := a.handler.(Starter); ok {
		a.safely(func() { s.Start(ctx) })
	}

	for _, t := range a.timers {
		go a.tick(ctx, t)
	}

	a.logger.Info().Msg("Actor started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Actor stopped")
			return
		case env := <-a.inbox:
			a.safely(func() { a.handler.Receive(ctx, env) })
		}
	}
}

// Done is closed once Run returns
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

func (a *Actor) tick(ctx context.Context, t timer) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Tell(ctx, a.name, t.msg); err != nil {
				return
			}
		}
	}
}

// safely runs fn, recovering a panicking handler so the actor keeps running
func (a *Actor) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Handler panicked")
		}
	}()
	fn()
}

// Tell enqueues msg. It blocks only while the mailbox is full.
func (a *Actor) Tell(ctx context.Context, from string, msg any) error {
	return a.enqueue(ctx, Envelope{From: from, Msg: msg})
}

func (a *Actor) enqueue(ctx context.Context, env Envelope) error {
	select {
	case <-a.done:
		return ErrStopped
	default:
	}

	select {
	case a.inbox <- env:
		return nil
	case <-a.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ask enqueues msg and waits up to timeout for the handler's reply.
// On timeout the request is not canceled; a late reply is dropped.
func (a *Actor) Ask(ctx context.Context, from string, msg any, timeout time.Duration) (any, error) {
	reply := make(chan any, 1)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.enqueue(ctx, Envelope{From: from, Msg: msg, reply: reply}); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}

	select {
	case v := <-reply:
		return v, nil
	case <-a.done:
		return nil, ErrStopped
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
