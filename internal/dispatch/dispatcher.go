// Package dispatch delivers engine effects to connected clients and persists
// session snapshots. It is the message-passing boundary that keeps engine
// correctness independent of transport and storage timing.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer/internal/quiz"
	"github.com/quizzerhq/quizzer/internal/store"
	"github.com/quizzerhq/quizzer/pkg/http/ws"
)

const snapshotTimeout = 5 * time.Second

// Dispatcher fans engine effects out to the hub and writes snapshots in the
// background. Neither path can fail an engine operation.
type Dispatcher struct {
	hub    *ws.Hub
	store  store.Store
	logger zerolog.Logger
}

// New creates a dispatcher.
func New(hub *ws.Hub, st store.Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, store: st, logger: logger}
}

// Dispatch delivers effects in order per target, then kicks off an
// asynchronous snapshot write. A nil snapshot skips persistence.
func (d *Dispatcher) Dispatch(code string, effects []quiz.Effect, snapshot []byte) {
	for _, effect := range effects {
		d.deliver(code, effect)
	}
	if snapshot != nil {
		go d.persist(code, snapshot)
	}
}

func (d *Dispatcher) deliver(code string, effect quiz.Effect) {
	msg := ws.NewMessage(effect.Event, effect.Payload)

	switch effect.Target.Kind {
	case quiz.TargetPlayers:
		d.hub.BroadcastPlayers(code, msg)
		eventsTotal.WithLabelValues(effect.Event, "players").Inc()
	case quiz.TargetAdmins:
		d.hub.BroadcastAdmins(code, msg)
		eventsTotal.WithLabelValues(effect.Event, "admins").Inc()
	case quiz.TargetPlayer:
		// The player may be offline; a missed targeted event is not an error.
		if err := d.hub.SendToPlayer(code, effect.Target.PlayerID, msg); err != nil {
			d.logger.Debug().Err(err).Str("code", code).
				Str("player_id", effect.Target.PlayerID).Str("event", effect.Event).
				Msg("targeted event not delivered")
		}
		eventsTotal.WithLabelValues(effect.Event, "player").Inc()
	}

	switch effect.Event {
	case quiz.EventAnswerLocked:
		answersTotal.WithLabelValues("accepted").Inc()
	case quiz.EventAnswerRejected:
		answersTotal.WithLabelValues("rejected").Inc()
	case quiz.EventLifelineUsed:
		lifelinesTotal.WithLabelValues("granted").Inc()
	case quiz.EventLifelineDenied:
		lifelinesTotal.WithLabelValues("denied").Inc()
	}
}

func (d *Dispatcher) persist(code string, snapshot []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if err := d.store.Save(ctx, code, snapshot); err != nil {
		snapshotFailures.Inc()
		d.logger.Warn().Err(err).Str("code", code).Msg("snapshot write failed")
	}
}
