// Package notify delivers alert notifications to subscribers with bounded retry.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Alias1177/PriceAlerts/models"
)

// ErrUnsupportedDestination is returned for addresses with no registered sender
var ErrUnsupportedDestination = errors.New("unsupported destination")

// Destination schemes
const (
	SchemeAgent    = "agent"
	SchemeWebhook  = "webhook"
	SchemeTelegram = "telegram"
)

// Sender delivers one notification to one destination. The target is the
// address without its scheme.
type Sender interface {
	Send(ctx context.Context, target string, n models.AlertNotification) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, target string, n models.AlertNotification) error

func (f SenderFunc) Send(ctx context.Context, target string, n models.AlertNotification) error {
	return f(ctx, target, n)
}

// ParseAddress splits "scheme:target". Addresses without a scheme are agent names.
func ParseAddress(address string) (scheme, target string) {
	address = strings.TrimSpace(address)
	scheme, target, ok := strings.Cut(address, ":")
	if !ok {
		return SchemeAgent, address
	}
	return strings.ToLower(scheme), target
}

// Router dispatches on the address scheme
type Router struct {
	senders map[string]Sender
}

func NewRouter() *Router {
	return &Router{senders: make(map[string]Sender)}
}

// Handle registers s for scheme
func (r *Router) Handle(scheme string, s Sender) {
	r.senders[strings.ToLower(scheme)] = s
}

// Supports reports whether address has a registered sender
func (r *Router) Supports(address string) bool {
	scheme, target := ParseAddress(address)
	_, ok := r.senders[scheme]
	return ok && target != ""
}

// Deliver sends n to address
func (r *Router) Deliver(ctx context.Context, address string, n models.AlertNotification) error {
	scheme, target := ParseAddress(address)
	s, ok := r.senders[scheme]
	if !ok || target == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedDestination, address)
	}
	return s.Send(ctx, target, n)
}
