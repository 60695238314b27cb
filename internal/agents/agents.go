// Package agents implements the price, analysis, alert and user agents.
// Each agent is an actor.Handler owning its state and a scoped keyed store.
package agents

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/PriceAlerts/internal/actor"
)

// Agent addresses
const (
	PriceAgent    = "price-agent"
	AnalysisAgent = "analysis-agent"
	AlertAgent    = "alert-agent"
	UserAgent     = "user-agent"
)

// respond replies to an Ask, or sends msg back to the sender of a Tell
func respond(ctx context.Context, out actor.Sender, self string, env actor.Envelope, msg any, logger zerolog.Logger) {
	if env.IsAsk() {
		env.Reply(msg)
		return
	}
	if env.From == "" || env.From == self {
		return
	}
	if err := out.Send(ctx, self, env.From, msg); err != nil {
		if errors.Is(err, actor.ErrUnknownAddress) {
			logger.Debug().Str("to", env.From).Msg("Sender is not an agent, response dropped")
			return
		}
		logger.Error().Err(err).Str("to", env.From).Msg("Failed to send response")
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
