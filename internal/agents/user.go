package agents

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/models"
)

const inboxSize = 100

// User is the default in-process subscriber. It logs received alerts and
// keeps the most recent ones.
type User struct {
	inbox  []models.AlertNotification
	logger zerolog.Logger
}

func NewUser() *User {
	return &User{
		logger: log.With().Str("component", "agent").Str("agent", UserAgent).Logger(),
	}
}

func (u *User) Receive(_ context.Context, env actor.Envelope) {
	switch msg := env.Msg.(type) {
	case models.AlertNotification:
		u.logger.Info().Str("alert_id", msg.AlertID).Str("from", env.From).Msg(msg.String())
		u.inbox = append(u.inbox, msg)
		if over := len(u.inbox) - inboxSize; over > 0 {
			u.inbox = append([]models.AlertNotification(nil), u.inbox[over:]...)
		}
	case models.InboxRequest:
		env.Reply(models.InboxResponse{Alerts: append([]models.AlertNotification{}, u.inbox...)})
	default:
		u.logger.Warn().Str("from", env.From).Msgf("Unexpected message %T", env.Msg)
	}
}
