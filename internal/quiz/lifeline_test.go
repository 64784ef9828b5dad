package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseLifelineFiftyFifty(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	p := addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	effects := s.UseLifeline("p1", LifelineFiftyFifty)
	require.Len(t, effects, 3)
	assert.Equal(t, EventLifelineUsed, effects[0].Event)
	assert.Equal(t, TargetAdmins, effects[0].Target.Kind)
	assert.Equal(t, EventLifelineStatus, effects[1].Event)
	assert.Equal(t, EventLifeline5050, effects[2].Event)

	keep := effects[2].Payload.(Lifeline5050Payload).KeepIDs
	require.Len(t, keep, 2)
	assert.Contains(t, keep, "b", "the correct choice always survives")
	assert.False(t, p.Lifelines[LifelineFiftyFifty])
}

func TestUseLifelineHint(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	effects := s.UseLifeline("p1", LifelineHint)
	require.Len(t, effects, 3)
	assert.Equal(t, EventLifelineHint, effects[2].Event)
	assert.Equal(t, "It hosts the Louvre", effects[2].Payload.(LifelineHintPayload).Hint)
}

func TestUseLifelineDeniedWhenConsumed(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	s.UseLifeline("p1", LifelineHint)
	effects := s.UseLifeline("p1", LifelineHint)
	require.Len(t, effects, 1)
	assert.Equal(t, EventLifelineDenied, effects[0].Event)
}

func TestUseLifelineDeniedWhenDisabled(t *testing.T) {
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	s.SetLifelinesEnabled(map[string]bool{LifelineFiftyFifty: false})
	effects := s.UseLifeline("p1", LifelineFiftyFifty)
	require.Len(t, effects, 1)
	assert.Equal(t, EventLifelineDenied, effects[0].Event)
}

func TestUseLifelineUnknownName(t *testing.T) {
	s := NewSession("TEST")
	addTestPlayer(s, "p1", "Ada")

	effects := s.UseLifeline("p1", "phone_a_friend")
	require.Len(t, effects, 1)
	assert.Equal(t, EventLifelineDenied, effects[0].Event)

	assert.Empty(t, s.UseLifeline("ghost", LifelineHint))
}

func TestUseLifelineAckWithoutActiveQuestion(t *testing.T) {
	s := NewSession("TEST")
	addTestPlayer(s, "p1", "Ada")

	// No question is live: the lifeline is consumed but there is nothing to
	// compute, so the player gets a bare ack.
	effects := s.UseLifeline("p1", LifelineFiftyFifty)
	require.Len(t, effects, 3)
	assert.Equal(t, EventLifelineAck, effects[2].Event)
}

func TestLifelineStatusPayloadDoesNotAliasSessionState(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	p := addTestPlayer(s, "p1", "Ada")

	effects, err := s.Start(nil, now)
	require.NoError(t, err)
	status := effectsByEvent(effects, EventLifelineStatus)[0].Payload.(map[string]bool)

	// Mutating the session after the operation returns must not change a
	// payload already handed to the dispatcher.
	p.Lifelines[LifelineHint] = false
	assert.True(t, status[LifelineHint])

	effects = s.UseLifeline("p1", LifelineFiftyFifty)
	status = effectsByEvent(effects, EventLifelineStatus)[0].Payload.(map[string]bool)
	p.Lifelines[LifelineFiftyFifty] = true
	assert.False(t, status[LifelineFiftyFifty])
}

func TestLifelinesEnabledPayloadDoesNotAliasSessionState(t *testing.T) {
	s := NewSession("TEST")

	effects := s.SetLifelinesEnabled(map[string]bool{LifelineHint: false})
	payload := effects[0].Payload.(map[string]bool)

	s.SetLifelinesEnabled(map[string]bool{LifelineHint: true})
	assert.False(t, payload[LifelineHint])
}

func TestSetLifelinesEnabledDropsUnknownKeys(t *testing.T) {
	s := NewSession("TEST")

	effects := s.SetLifelinesEnabled(map[string]bool{
		LifelineHint:     false,
		"phone_a_friend": true,
	})
	require.Len(t, effects, 1)
	assert.Equal(t, EventLifelines, effects[0].Event)
	assert.False(t, s.LifelinesEnabled[LifelineHint])
	assert.True(t, s.LifelinesEnabled[LifelineFiftyFifty])
	assert.NotContains(t, s.LifelinesEnabled, "phone_a_friend")
}
