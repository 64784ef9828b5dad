package quiz

import (
	"math/rand/v2"
)

// UseLifeline consumes a lifeline for a player and returns the resulting
// effects. A denial is an effect, not an error: the player connection gets
// lifeline_denied and nothing mutates.
func (s *Session) UseLifeline(playerID, lifeline string) []Effect {
	player, ok := s.Players[playerID]
	if !ok {
		return nil
	}

	if lifeline != LifelineFiftyFifty && lifeline != LifelineHint {
		return []Effect{toPlayer(playerID, EventLifelineDenied, LifelineDeniedPayload{Lifeline: lifeline})}
	}
	enabled, known := s.LifelinesEnabled[lifeline]
	if known && !enabled {
		return []Effect{toPlayer(playerID, EventLifelineDenied, LifelineDeniedPayload{Lifeline: lifeline})}
	}
	if !player.Lifelines[lifeline] {
		return []Effect{toPlayer(playerID, EventLifelineDenied, LifelineDeniedPayload{Lifeline: lifeline})}
	}

	// Consumed until the next start command resets lifelines.
	player.Lifelines[lifeline] = false

	effects := []Effect{
		toAdmins(EventLifelineUsed, LifelineUsedPayload{PlayerID: playerID, Name: player.Name, Lifeline: lifeline}),
		toPlayer(playerID, EventLifelineStatus, copyLifelines(player.Lifelines)),
	}
	effects = append(effects, s.lifelinePayload(playerID, lifeline)...)
	return effects
}

// lifelinePayload computes the server-driven effect of a granted lifeline.
func (s *Session) lifelinePayload(playerID, lifeline string) []Effect {
	q, active := s.currentQuestion()
	if !active {
		return []Effect{toPlayer(playerID, EventLifelineAck, LifelineAckPayload{Lifeline: lifeline})}
	}

	switch lifeline {
	case LifelineFiftyFifty:
		if len(q.Choices) == 0 || q.Answer == "" {
			return []Effect{toPlayer(playerID, EventLifelineAck, LifelineAckPayload{Lifeline: lifeline})}
		}
		var wrong []string
		for _, c := range q.Choices {
			if c.ID != q.Answer {
				wrong = append(wrong, c.ID)
			}
		}
		keep := []string{q.Answer}
		if len(wrong) > 0 {
			keep = append(keep, wrong[rand.IntN(len(wrong))])
		}
		return []Effect{toPlayer(playerID, EventLifeline5050, Lifeline5050Payload{KeepIDs: keep})}
	case LifelineHint:
		return []Effect{toPlayer(playerID, EventLifelineHint, LifelineHintPayload{Hint: q.Hint})}
	}
	return []Effect{toPlayer(playerID, EventLifelineAck, LifelineAckPayload{Lifeline: lifeline})}
}

// SetLifelinesEnabled merges recognized lifeline switches into the quiz-wide
// enable map. Unrecognized keys are dropped silently.
func (s *Session) SetLifelinesEnabled(lifelines map[string]bool) []Effect {
	for name, enabled := range lifelines {
		if name == LifelineFiftyFifty || name == LifelineHint {
			s.LifelinesEnabled[name] = enabled
		}
	}
	return []Effect{toAdmins(EventLifelines, copyLifelines(s.LifelinesEnabled))}
}

// copyLifelines snapshots a lifeline map for an effect payload. Effects are
// marshaled after the session lock is released, so payloads must never alias
// session-owned maps.
func copyLifelines(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for name, enabled := range m {
		out[name] = enabled
	}
	return out
}
