package agents

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/alerts"
	"github.com/Alias1177/PriceAlerts/internal/config"
	"github.com/Alias1177/PriceAlerts/internal/notify"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

// Deps are the external collaborators of the agent system
type Deps struct {
	Config      *config.Config
	Store       storage.KeyedStore
	PriceClient models.PriceClient
	Relay       notify.Poster // nil disables webhook subscribers
	Telegram    notify.Sender // nil disables telegram subscribers

	// DefaultRules overrides the built-in default rules when non-nil
	DefaultRules []models.AlertRule
}

// System is the set of running agents and the registry that connects them
type System struct {
	Registry *actor.Registry
	actors   []*actor.Actor
	wg       sync.WaitGroup
}

// NewSystem wires the four agents. Each agent gets its own storage scope.
func NewSystem(deps Deps) *System {
	cfg := deps.Config
	registry := actor.NewRegistry()
	quota := actor.NewQuota(cfg.QuotaPerMinute)

	router := notify.NewRouter()
	router.Handle(notify.SchemeAgent, notify.AgentSender(registry, AlertAgent))
	if deps.Relay != nil {
		router.Handle(notify.SchemeWebhook, notify.WebhookSender(deps.Relay))
	}
	if deps.Telegram != nil {
		router.Handle(notify.SchemeTelegram, deps.Telegram)
	}

	subscribers := append([]string(nil), cfg.Subscribers...)
	if cfg.N8NWebhookURL != "" {
		subscribers = append(subscribers, notify.SchemeWebhook+":"+cfg.N8NWebhookURL)
	}

	var defaults []models.AlertRule
	if cfg.SeedDefaultRules {
		defaults = deps.DefaultRules
		if defaults == nil {
			defaults = alerts.DefaultRules()
		}
	}

	price := actor.New(PriceAgent,
		NewPrice(deps.PriceClient, storage.Scoped(deps.Store, PriceAgent), registry, cfg.Symbols),
		cfg.MailboxSize)
	price.Every(cfg.PriceUpdateInterval, models.FetchTick{})

	analysis := actor.New(AnalysisAgent,
		NewAnalysis(storage.Scoped(deps.Store, AnalysisAgent), registry, quota, cfg.IndicatorParams(), cfg.HistorySize),
		cfg.MailboxSize)

	alert := actor.New(AlertAgent,
		NewAlert(storage.Scoped(deps.Store, AlertAgent), registry, router, quota, AlertOptions{
			DefaultRules:       defaults,
			DefaultSubscribers: subscribers,
			MaxAttempts:        cfg.MaxDeliveryAttempts,
			TriggeredLogSize:   cfg.TriggeredLogSize,
			DeliveryTimeout:    cfg.DeliveryTimeout,
		}),
		cfg.MailboxSize)
	alert.Every(cfg.AlertRetryInterval, models.RetryTick{})

	user := actor.New(UserAgent, NewUser(), cfg.MailboxSize)

	s := &System{
		Registry: registry,
		actors:   []*actor.Actor{user, alert, analysis, price},
	}
	registry.Register(s.actors...)
	return s
}

// Run starts every agent. Downstream agents start first so the price
// agent's initial fetch finds them running.
func (s *System) Run(ctx context.Context) {
	for _, a := range s.actors {
		s.wg.Add(1)
		go func(a *actor.Actor) {
			defer s.wg.Done()
			a.Run(ctx)
		}(a)
	}
	log.Info().Int("agents", len(s.actors)).Msg("Agent system started")
}

// Wait blocks until every agent has stopped
func (s *System) Wait() {
	s.wg.Wait()
}
