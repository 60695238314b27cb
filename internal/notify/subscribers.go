package notify

import (
	"context"
	"strings"

	"github.com/Alias1177/PriceAlerts/internal/storage"
)

// KeySubscribers is the storage key of the subscriber list
const KeySubscribers = "subscribed_users"

// SubscriberSet is an append-only, ordered set of destination addresses
type SubscriberSet struct {
	addresses []string
}

func NewSubscriberSet(addresses ...string) *SubscriberSet {
	s := &SubscriberSet{}
	for _, a := range addresses {
		s.Add(a)
	}
	return s
}

// Add registers address. It returns false for blanks and duplicates.
func (s *SubscriberSet) Add(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	for _, a := range s.addresses {
		if a == address {
			return false
		}
	}
	s.addresses = append(s.addresses, address)
	return true
}

func (s *SubscriberSet) Len() int {
	return len(s.addresses)
}

// List returns the addresses in registration order
func (s *SubscriberSet) List() []string {
	return append([]string(nil), s.addresses...)
}

func (s *SubscriberSet) Load(ctx context.Context, store storage.KeyedStore) error {
	var addresses []string
	ok, err := storage.LoadJSON(ctx, store, KeySubscribers, &addresses)
	if err != nil || !ok {
		return err
	}
	s.addresses = nil
	for _, a := range addresses {
		s.Add(a)
	}
	return nil
}

func (s *SubscriberSet) Save(ctx context.Context, store storage.KeyedStore) error {
	addresses := s.addresses
	if addresses == nil {
		addresses = []string{}
	}
	return storage.SaveJSON(ctx, store, KeySubscribers, addresses)
}
