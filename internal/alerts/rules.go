package alerts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

// KeyRules is the storage key of the rule list
const KeyRules = "alerts"

// ErrInvalidRule is wrapped by every validation failure
var ErrInvalidRule = errors.New("invalid alert rule")

// RuleStore keeps alert rules in insertion order, keyed by id.
// It is owned by a single agent and is not safe for concurrent use.
type RuleStore struct {
	rules []models.AlertRule
	newID func() string
}

// NewRuleStore creates an empty store assigning uuid ids
func NewRuleStore() *RuleStore {
	return &RuleStore{newID: uuid.NewString}
}

// Len returns the number of rules
func (s *RuleStore) Len() int {
	return len(s.rules)
}

func (s *RuleStore) indexOf(id string) int {
	for i, r := range s.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Configure inserts rule when its id is unseen (assigning one when empty)
// or replaces the rule with the same id. The store is left unchanged when
// validation fails.
func (s *RuleStore) Configure(rule models.AlertRule) (string, error) {
	rule = normalize(rule)

	if err := s.validate(rule); err != nil {
		return "", err
	}

	if rule.ID == "" {
		rule.ID = s.newID()
	}

	if i := s.indexOf(rule.ID); i >= 0 {
		s.rules[i] = rule
	} else {
		s.rules = append(s.rules, rule)
	}
	return rule.ID, nil
}

// Delete removes the rule with id. It returns false if there is none.
func (s *RuleStore) Delete(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return true
}

// List returns a snapshot filtered by symbol (when non-empty) and active flag
func (s *RuleStore) List(symbol string, activeOnly bool) []models.AlertRule {
	symbol = normalizeSymbol(symbol)

	out := make([]models.AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		if activeOnly && !r.Active {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// ActiveFor returns the active rules of symbol
func (s *RuleStore) ActiveFor(symbol string) []models.AlertRule {
	return s.List(symbol, true)
}

// Apply replaces stored rules by id with the given updates.
// Updates for rules deleted in the meantime are ignored.
func (s *RuleStore) Apply(updates []models.AlertRule) int {
	applied := 0
	for _, u := range updates {
		if i := s.indexOf(u.ID); i >= 0 {
			s.rules[i] = u.Clone()
			applied++
		}
	}
	return applied
}

// Load replaces the store content with the persisted rule list.
// It returns false when nothing was persisted yet.
func (s *RuleStore) Load(ctx context.Context, store storage.KeyedStore) (bool, error) {
	var rules []models.AlertRule
	ok, err := storage.LoadJSON(ctx, store, KeyRules, &rules)
	if err != nil || !ok {
		return false, err
	}
	s.rules = rules
	return true, nil
}

// Save persists the full rule list
func (s *RuleStore) Save(ctx context.Context, store storage.KeyedStore) error {
	rules := s.rules
	if rules == nil {
		rules = []models.AlertRule{}
	}
	return storage.SaveJSON(ctx, store, KeyRules, rules)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func normalize(rule models.AlertRule) models.AlertRule {
	rule = rule.Clone()
	rule.ID = strings.TrimSpace(rule.ID)
	rule.Symbol = normalizeSymbol(rule.Symbol)
	rule.Type = models.AlertType(strings.ToUpper(strings.TrimSpace(string(rule.Type))))
	return rule
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}

func (s *RuleStore) validate(rule models.AlertRule) error {
	if rule.Symbol == "" {
		return invalid("symbol is required")
	}
	if !rule.Type.Valid() {
		return invalid("unknown alert type %q", rule.Type)
	}
	if math.IsNaN(rule.Threshold) || math.IsInf(rule.Threshold, 0) {
		return invalid("threshold must be a finite number")
	}

	switch rule.Type {
	case models.AlertPriceAbove, models.AlertPriceBelow, models.AlertPercentChange, models.AlertVolumeSpike:
		if rule.Threshold <= 0 {
			return invalid("%s threshold must be positive", rule.Type)
		}
	case models.AlertRSIOverbought, models.AlertRSIOversold:
		if rule.Threshold < 0 || rule.Threshold > 100 {
			return invalid("RSI threshold must be within [0, 100]")
		}
		if rule.Active {
			return s.validateRSIOrdering(rule)
		}
	case models.AlertSupportBreakout, models.AlertResistanceBreakout:
		if rule.Threshold < 0 {
			return invalid("%s threshold must not be negative", rule.Type)
		}
	}

	return nil
}

// validateRSIOrdering keeps every active oversold threshold strictly below
// every active overbought threshold of the same symbol
func (s *RuleStore) validateRSIOrdering(rule models.AlertRule) error {
	for _, other := range s.rules {
		if other.ID == rule.ID || other.Symbol != rule.Symbol || !other.Active {
			continue
		}

		switch {
		case rule.Type == models.AlertRSIOversold && other.Type == models.AlertRSIOverbought:
			if rule.Threshold >= other.Threshold {
				return invalid("RSI oversold threshold %.2f must be below overbought threshold %.2f",
					rule.Threshold, other.Threshold)
			}
		case rule.Type == models.AlertRSIOverbought && other.Type == models.AlertRSIOversold:
			if rule.Threshold <= other.Threshold {
				return invalid("RSI overbought threshold %.2f must be above oversold threshold %.2f",
					rule.Threshold, other.Threshold)
			}
		}
	}
	return nil
}
