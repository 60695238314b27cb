package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/alerts"
	"github.com/Alias1177/PriceAlerts/internal/notify"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

const (
	rateLimitMessage       = "rate limit exceeded"
	defaultDeliveryTimeout = 5 * time.Second
)

// AlertOptions configures the alert agent
type AlertOptions struct {
	DefaultRules       []models.AlertRule // seeded into an empty rule store; nil disables seeding
	DefaultSubscribers []string           // seeded into an empty subscriber set
	MaxAttempts        int
	TriggeredLogSize   int
	DeliveryTimeout    time.Duration // upper bound on one flush
}

// Alert owns the rules, evaluates analysis results and delivers the
// resulting notifications
type Alert struct {
	rules       *alerts.RuleStore
	triggered   *alerts.TriggeredLog
	dispatcher  *notify.Dispatcher
	subscribers *notify.SubscriberSet
	router      *notify.Router
	opts        AlertOptions
	store       storage.KeyedStore
	out         actor.Sender
	quota       *actor.Quota
	logger      zerolog.Logger
	now         func() time.Time
}

func NewAlert(store storage.KeyedStore, out actor.Sender, router *notify.Router, quota *actor.Quota, opts AlertOptions) *Alert {
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}
	return &Alert{
		rules:       alerts.NewRuleStore(),
		triggered:   alerts.NewTriggeredLog(opts.TriggeredLogSize),
		dispatcher:  notify.NewDispatcher(router, opts.MaxAttempts),
		subscribers: notify.NewSubscriberSet(),
		router:      router,
		opts:        opts,
		store:       store,
		out:         out,
		quota:       quota,
		logger:      log.With().Str("component", "agent").Str("agent", AlertAgent).Logger(),
		now:         nowUTC,
	}
}

// Start loads the persisted state, seeds defaults into empty stores and
// retries whatever was pending before the restart
func (a *Alert) Start(ctx context.Context) {
	if _, err := a.rules.Load(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to load alert rules")
	}
	if a.rules.Len() == 0 && len(a.opts.DefaultRules) > 0 {
		seeded, errs := a.rules.Seed(a.opts.DefaultRules)
		for _, err := range errs {
			a.logger.Warn().Err(err).Msg("Skipping invalid default rule")
		}
		a.logger.Info().Int("count", seeded).Msg("Seeded default alert rules")
	}
	a.saveRules(ctx)

	if err := a.triggered.Load(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to load triggered alerts")
	}
	if err := a.dispatcher.Load(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to load pending alerts")
	}
	if err := a.subscribers.Load(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to load subscribers")
	}
	if a.subscribers.Len() == 0 {
		for _, addr := range a.opts.DefaultSubscribers {
			if a.subscribers.Add(addr) {
				a.logger.Info().Str("address", addr).Msg("Added default subscriber")
			}
		}
		a.saveSubscribers(ctx)
	}

	for _, r := range a.rules.List("", false) {
		a.logger.Info().Str("alert_id", r.ID).Msg(r.String())
	}
	a.logger.Info().
		Int("rules", a.rules.Len()).
		Int("pending", a.dispatcher.Len()).
		Strs("subscribers", a.subscribers.List()).
		Msg("Alert agent started")

	a.flush(ctx)
}

func (a *Alert) Receive(ctx context.Context, env actor.Envelope) {
	switch msg := env.Msg.(type) {
	case models.AnalysisResult:
		a.evaluate(ctx, msg)
	case models.RetryTick:
		a.flush(ctx)
	case models.ConfigureAlertRequest:
		respond(ctx, a.out, AlertAgent, env, a.configure(ctx, env.From, msg), a.logger)
	case models.DeleteAlertRequest:
		respond(ctx, a.out, AlertAgent, env, a.delete(ctx, env.From, msg), a.logger)
	case models.ListAlertsRequest:
		respond(ctx, a.out, AlertAgent, env, a.list(env.From, msg), a.logger)
	case models.SubscribeRequest:
		respond(ctx, a.out, AlertAgent, env, a.subscribe(ctx, msg), a.logger)
	case models.TriggeredAlertsRequest:
		env.Reply(models.TriggeredAlertsResponse{Alerts: a.triggered.Recent(msg.Limit)})
	default:
		a.logger.Warn().Str("from", env.From).Msgf("Unexpected message %T", env.Msg)
	}
}

// evaluate runs one evaluation pass. Rule updates are committed and saved
// before any notification is queued.
func (a *Alert) evaluate(ctx context.Context, result models.AnalysisResult) {
	now := a.now()
	notifications, updates := alerts.Evaluate(result, a.rules.ActiveFor(result.Symbol), now)

	if len(updates) > 0 {
		a.rules.Apply(updates)
		a.saveRules(ctx)
	}
	if len(notifications) == 0 {
		return
	}

	for _, n := range notifications {
		a.logger.Info().
			Str("alert_id", n.AlertID).
			Str("symbol", n.Symbol).
			Float64("value", n.TriggeredValue).
			Msg("Alert triggered: " + n.Message)
	}

	a.triggered.Append(notifications...)
	if err := a.triggered.Save(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to store triggered alerts")
	}

	a.dispatcher.Enqueue(now, notifications...)
	a.savePending(ctx)
	a.flush(ctx)
}

func (a *Alert) flush(ctx context.Context) {
	if a.dispatcher.Len() == 0 {
		return
	}

	// Sends still running at the deadline fail and are retried on the next tick
	flushCtx, cancel := context.WithTimeout(ctx, a.opts.DeliveryTimeout)
	res := a.dispatcher.Flush(flushCtx, a.subscribers.List(), a.now())
	cancel()
	if res == (notify.FlushResult{}) {
		return
	}

	a.logger.Info().
		Int("delivered", res.Delivered).
		Int("retrying", res.Retrying).
		Int("dropped", res.Dropped).
		Msg("Flushed pending alerts")
	a.savePending(ctx)
}

func (a *Alert) configure(ctx context.Context, from string, req models.ConfigureAlertRequest) models.ConfigureAlertResponse {
	if !a.quota.Allow(from) {
		return models.ConfigureAlertResponse{Success: false, Message: rateLimitMessage}
	}

	id, err := a.rules.Configure(req.Rule)
	if err != nil {
		a.logger.Warn().Err(err).Str("from", from).Msg("Rejected alert configuration")
		return models.ConfigureAlertResponse{Success: false, Message: err.Error()}
	}
	a.saveRules(ctx)

	a.logger.Info().Str("alert_id", id).Str("from", from).Msg("Alert configured")
	return models.ConfigureAlertResponse{
		Success: true,
		AlertID: id,
		Message: fmt.Sprintf("Alert %s configured", id),
	}
}

func (a *Alert) delete(ctx context.Context, from string, req models.DeleteAlertRequest) models.DeleteAlertResponse {
	if !a.quota.Allow(from) {
		return models.DeleteAlertResponse{Success: false, Message: rateLimitMessage}
	}

	if !a.rules.Delete(req.AlertID) {
		return models.DeleteAlertResponse{Success: false, Message: fmt.Sprintf("Alert %s not found", req.AlertID)}
	}
	a.saveRules(ctx)

	a.logger.Info().Str("alert_id", req.AlertID).Str("from", from).Msg("Alert deleted")
	return models.DeleteAlertResponse{Success: true, Message: fmt.Sprintf("Alert %s deleted", req.AlertID)}
}

func (a *Alert) list(from string, req models.ListAlertsRequest) models.ListAlertsResponse {
	if !a.quota.Allow(from) {
		a.logger.Warn().Str("from", from).Msg("List request rate limit exceeded")
		return models.ListAlertsResponse{Rules: []models.AlertRule{}}
	}
	return models.ListAlertsResponse{Rules: a.rules.List(req.Symbol, req.ActiveOnly)}
}

func (a *Alert) subscribe(ctx context.Context, req models.SubscribeRequest) models.SubscribeResponse {
	if !a.router.Supports(req.Address) {
		return models.SubscribeResponse{Success: false, Message: fmt.Sprintf("unsupported destination %q", req.Address)}
	}
	if !a.subscribers.Add(req.Address) {
		return models.SubscribeResponse{Success: true, Message: "already subscribed"}
	}
	a.saveSubscribers(ctx)

	a.logger.Info().Str("address", req.Address).Msg("Subscriber added")
	a.flush(ctx)
	return models.SubscribeResponse{Success: true, Message: "subscribed"}
}

func (a *Alert) saveRules(ctx context.Context) {
	if err := a.rules.Save(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to store alert rules")
	}
}

func (a *Alert) savePending(ctx context.Context) {
	if err := a.dispatcher.Save(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to store pending alerts")
	}
}

func (a *Alert) saveSubscribers(ctx context.Context) {
	if err := a.subscribers.Save(ctx, a.store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to store subscribers")
	}
}
