package alerts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/PriceAlerts/models"
)

// DefaultRules are seeded into an empty store at startup
func DefaultRules() []models.AlertRule {
	return []models.AlertRule{
		{
			Symbol:      "BTC",
			Type:        models.AlertPriceAbove,
			Threshold:   80000,
			Active:      true,
			Description: "BTC price above $80,000",
		},
		{
			Symbol:      "ETH",
			Type:        models.AlertPriceBelow,
			Threshold:   1600,
			Active:      true,
			Description: "ETH price below $1,600",
		},
		{
			Symbol:      "SOL",
			Type:        models.AlertPriceAbove,
			Threshold:   100,
			Active:      true,
			Description: "SOL price above $100",
		},
	}
}

type fileRule struct {
	ID               string         `yaml:"id"`
	Symbol           string         `yaml:"symbol"`
	Type             string         `yaml:"type"`
	Threshold        float64        `yaml:"threshold"`
	Active           *bool          `yaml:"active"`
	Description      string         `yaml:"description"`
	AdditionalParams map[string]any `yaml:"additional_params"`
}

type rulesFile struct {
	Rules []fileRule `yaml:"rules"`
}

// LoadRulesFile reads default rules from a YAML file of the form
//
//	rules:
//	  - symbol: BTC
//	    type: PRICE_ABOVE
//	    threshold: 80000
//
// Rules are active unless they set active: false.
func LoadRulesFile(path string) ([]models.AlertRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	rules := make([]models.AlertRule, 0, len(f.Rules))
	for _, r := range f.Rules {
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		rules = append(rules, models.AlertRule{
			ID:               r.ID,
			Symbol:           r.Symbol,
			Type:             models.AlertType(r.Type),
			Threshold:        r.Threshold,
			Active:           active,
			Description:      r.Description,
			AdditionalParams: r.AdditionalParams,
		})
	}
	return rules, nil
}

// Seed configures rules into an empty store. Invalid rules are skipped and
// returned as errors; a non-empty store is left untouched.
func (s *RuleStore) Seed(rules []models.AlertRule) (int, []error) {
	if s.Len() > 0 {
		return 0, nil
	}

	var errs []error
	seeded := 0
	for _, r := range rules {
		if _, err := s.Configure(r); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", r.Symbol, r.Type, err))
			continue
		}
		seeded++
	}
	return seeded, errs
}
