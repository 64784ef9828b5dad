package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuestions() []Question {
	return NormalizeQuestions([]Question{
		{ID: "q1", Text: "Capital of France?", Choices: []Choice{{ID: "a", Text: "London"}, {ID: "b", Text: "Paris"}}, Answer: "b", Hint: "It hosts the Louvre"},
		{ID: "q2", Text: "2+2?", Answer: "4", Duration: 10},
	})
}

func addTestPlayer(s *Session, id, name string) *Player {
	p := &Player{ID: id, Name: name, Lifelines: defaultLifelines()}
	s.Players[id] = p
	return p
}

func effectsByEvent(effects []Effect, event string) []Effect {
	var out []Effect
	for _, e := range effects {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func TestStartWithoutQuestionsFailsWithoutMutation(t *testing.T) {
	s := NewSession("TEST")
	_, err := s.Start(nil, time.Now())
	require.ErrorIs(t, err, ErrNoQuestions)
	assert.False(t, s.IsActive)
	assert.Equal(t, -1, s.CurrentIndex)
}

func TestStartEmitsQuestionAndStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	effects, err := s.Start(nil, now)
	require.NoError(t, err)
	assert.True(t, s.IsActive)
	assert.Equal(t, 0, s.CurrentIndex)

	questions := effectsByEvent(effects, EventQuestion)
	require.Len(t, questions, 1)
	payload := questions[0].Payload.(QuestionPayload)
	assert.Equal(t, "q1", payload.Question.ID)
	assert.Empty(t, payload.Question.Answer, "canonical answer must not reach participants")
	assert.Equal(t, 30.0, payload.Remaining)

	assert.Len(t, effectsByEvent(effects, EventStatus), 2)
	assert.Len(t, effectsByEvent(effects, EventLifelineStatus), 1)
}

func TestStartAtIndex(t *testing.T) {
	s := NewSession("TEST")
	s.Questions = testQuestions()

	index := 1
	_, err := s.Start(&index, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentIndex)
}

func TestStartResetsConsumedLifelines(t *testing.T) {
	s := NewSession("TEST")
	s.Questions = testQuestions()
	p := addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, time.Now())
	require.NoError(t, err)
	s.UseLifeline("p1", LifelineHint)
	require.False(t, p.Lifelines[LifelineHint])

	_, err = s.Start(nil, time.Now())
	require.NoError(t, err)
	assert.True(t, p.Lifelines[LifelineHint])
	assert.True(t, p.Lifelines[LifelineFiftyFifty])
}

func TestAdvanceRevealsBeforeMovingOn(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	// First advance on an unrevealed question reveals it in place.
	effects, err := s.Advance(now.Add(5 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.True(t, s.Revealed)
	assert.NotEmpty(t, effectsByEvent(effects, EventReveal))

	// Second advance actually moves to the next question.
	effects, err = s.Advance(now.Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentIndex)
	assert.False(t, s.Revealed)
	assert.NotEmpty(t, effectsByEvent(effects, EventLeaderboardHide))
	assert.NotEmpty(t, effectsByEvent(effects, EventQuestion))
}

func TestAdvanceDoesNotResetLifelines(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	p := addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)
	s.UseLifeline("p1", LifelineFiftyFifty)

	s.Reveal()
	_, err = s.Advance(now)
	require.NoError(t, err)

	assert.False(t, p.Lifelines[LifelineFiftyFifty], "lifelines survive question transitions")
	assert.True(t, p.Lifelines[LifelineHint])
}

func TestAdvancePastEndCompletes(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()[:1]

	_, err := s.Start(nil, now)
	require.NoError(t, err)
	s.Reveal()

	effects, err := s.Advance(now)
	require.NoError(t, err)
	assert.NotEmpty(t, effectsByEvent(effects, EventComplete))
	assert.False(t, s.IsActive)
}

func TestRevealScoresAndPublishes(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")
	addTestPlayer(s, "p2", "Grace")
	addTestPlayer(s, "p3", "Edsger")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	s.Submit("p1", "b", now.Add(1*time.Second))
	s.Submit("p2", "b", now.Add(2*time.Second))
	s.Submit("p3", "a", now.Add(3*time.Second))

	effects := s.Reveal()

	assert.Equal(t, 15, s.Players["p1"].Score)
	assert.Equal(t, 14, s.Players["p2"].Score)
	assert.Equal(t, 0, s.Players["p3"].Score)

	reveals := effectsByEvent(effects, EventReveal)
	require.Len(t, reveals, 1)
	assert.Equal(t, "b", reveals[0].Payload.(RevealPayload).CorrectAnswer)

	results := effectsByEvent(effects, EventAnswerResult)
	require.Len(t, results, 3)
	for _, e := range results {
		assert.Equal(t, TargetPlayer, e.Target.Kind)
	}

	// Leaderboard and status go to both rooms.
	assert.Len(t, effectsByEvent(effects, EventLeaderboard), 2)
	assert.Len(t, effectsByEvent(effects, EventStatus), 2)
}

func TestRevealIsIdempotent(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)
	s.Submit("p1", "b", now)

	first := s.Reveal()
	require.NotEmpty(t, first)
	score := s.Players["p1"].Score

	second := s.Reveal()
	assert.Empty(t, second)
	assert.Equal(t, score, s.Players["p1"].Score, "repeat reveal must not double-award")
}

func TestSubmitLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	// Before start there is no active question.
	effects := s.Submit("p1", "b", now)
	require.Len(t, effects, 1)
	assert.Equal(t, RejectNoActiveQuestion, effects[0].Payload.(AnswerRejectedPayload).Reason)

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	// Accepted: admins see the submission, the player gets a lock ack.
	effects = s.Submit("p1", "b", now.Add(time.Second))
	require.Len(t, effects, 2)
	assert.Equal(t, EventAnswerSubmitted, effects[0].Event)
	assert.Equal(t, TargetAdmins, effects[0].Target.Kind)
	assert.Equal(t, EventAnswerLocked, effects[1].Event)

	// A second submission is locked out.
	effects = s.Submit("p1", "a", now.Add(2*time.Second))
	require.Len(t, effects, 1)
	assert.Equal(t, RejectAlreadyLocked, effects[0].Payload.(AnswerRejectedPayload).Reason)
	assert.Equal(t, "b", s.CurrentAnswers["p1"], "locked answer must not change")
}

func TestSubmitRejectedWhenPausedOrRevealed(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	s.TogglePause(now)
	effects := s.Submit("p1", "b", now)
	assert.Equal(t, RejectPausedOrRevealed, effects[0].Payload.(AnswerRejectedPayload).Reason)

	s.TogglePause(now)
	s.Reveal()
	effects = s.Submit("p1", "b", now)
	assert.Equal(t, RejectPausedOrRevealed, effects[0].Payload.(AnswerRejectedPayload).Reason)
}

func TestSubmitRejectedAfterTimeExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")
	addTestPlayer(s, "p2", "Grace")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	// One second before the 30s window closes still counts.
	effects := s.Submit("p1", "b", now.Add(29*time.Second))
	assert.Equal(t, EventAnswerSubmitted, effects[0].Event)

	effects = s.Submit("p2", "b", now.Add(31*time.Second))
	require.Len(t, effects, 1)
	assert.Equal(t, RejectTimeExpired, effects[0].Payload.(AnswerRejectedPayload).Reason)
}

func TestSubmitTimeExpiryRespectsPauses(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	// 20s in, pause for a minute. Wall clock is way past the window but only
	// 25s of play time has elapsed at submission.
	s.TogglePause(now.Add(20 * time.Second))
	s.TogglePause(now.Add(80 * time.Second))

	effects := s.Submit("p1", "b", now.Add(85*time.Second))
	assert.Equal(t, EventAnswerSubmitted, effects[0].Event)
}

func TestRegister(t *testing.T) {
	s := NewSession("TEST")

	_, err := s.Register("Ada", "")
	assert.ErrorIs(t, err, ErrEmailRequired)

	p, err := s.Register("Ada", " Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "ada@example.com", p.ParticipantCode)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.Lifelines[LifelineFiftyFifty])

	// Re-registering the same email returns the existing player.
	again, err := s.Register("Ada L.", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Len(t, s.Players, 1)
}

func TestRegisterAllowList(t *testing.T) {
	s := NewSession("TEST")
	s.SetAllowedEmails([]string{"Ada@Example.com"}, EmailModeReplace)

	_, err := s.Register("Eve", "eve@example.com")
	assert.ErrorIs(t, err, ErrEmailNotAllowed)

	p, err := s.Register("Ada", "ADA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
}

func TestSetAllowedEmailsModes(t *testing.T) {
	s := NewSession("TEST")

	got := s.SetAllowedEmails([]string{"A@x.com", " b@x.com "}, EmailModeReplace)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got)

	got = s.SetAllowedEmails([]string{"b@x.com", "c@x.com"}, EmailModeAppend)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, got)

	got = s.SetAllowedEmails([]string{"a@x.com"}, EmailModeRemove)
	assert.Equal(t, []string{"b@x.com", "c@x.com"}, got)

	// Unknown mode behaves as replace.
	got = s.SetAllowedEmails([]string{"z@x.com"}, "bogus")
	assert.Equal(t, []string{"z@x.com"}, got)
}

func TestSetQuestionsRejectedMidRound(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	require.NoError(t, s.SetQuestions(testQuestions()))

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	err = s.SetQuestions([]Question{{ID: "new", Text: "?"}})
	assert.ErrorIs(t, err, ErrRoundInProgress)

	s.Reveal()
	require.NoError(t, s.SetQuestions([]Question{{ID: "new", Text: "?"}}))
	assert.Equal(t, DefaultQuestionSeconds, s.Questions[0].Duration, "durations default on upload")
}

func TestLeaderboardOrdering(t *testing.T) {
	s := NewSession("TEST")
	addTestPlayer(s, "p1", "Ada").Score = 10
	addTestPlayer(s, "p2", "Grace").Score = 25
	addTestPlayer(s, "p3", "Alan").Score = 10

	board := s.Leaderboard()
	require.Len(t, board, 3)
	assert.Equal(t, "Grace", board[0].Name)
	// Ties break by name.
	assert.Equal(t, "Ada", board[1].Name)
	assert.Equal(t, "Alan", board[2].Name)
}

func TestJoinEffectsLateJoinerGetsLiveQuestion(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")

	// Before a round: just the join ack and lifeline status.
	effects := s.JoinEffects("p1", now)
	require.Len(t, effects, 2)
	assert.Equal(t, EventJoined, effects[0].Event)
	assert.Equal(t, EventLifelineStatus, effects[1].Event)

	_, err := s.Start(nil, now)
	require.NoError(t, err)

	effects = s.JoinEffects("p1", now.Add(12*time.Second))
	require.Len(t, effects, 4)
	payload := effects[2].Payload.(QuestionPayload)
	assert.Equal(t, "q1", payload.Question.ID)
	assert.Equal(t, 18.0, payload.Remaining)

	assert.Empty(t, s.JoinEffects("ghost", now))
}

func TestResetClearsStateKeepsCode(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	addTestPlayer(s, "p1", "Ada")
	_, err := s.Start(nil, now)
	require.NoError(t, err)

	effects := s.Reset()
	assert.Len(t, effectsByEvent(effects, EventReset), 2)
	assert.Equal(t, "TEST", s.Code)
	assert.Empty(t, s.Players)
	assert.Empty(t, s.Questions)
	assert.False(t, s.IsActive)
	assert.Equal(t, -1, s.CurrentIndex)
}

func TestTogglePauseEmitsToBothRooms(t *testing.T) {
	now := time.Now()
	s := NewSession("TEST")
	s.Questions = testQuestions()
	_, err := s.Start(nil, now)
	require.NoError(t, err)

	effects := s.TogglePause(now)
	assert.Len(t, effectsByEvent(effects, EventPaused), 2)
	assert.True(t, s.Paused)

	effects = s.TogglePause(now.Add(time.Second))
	assert.Len(t, effectsByEvent(effects, EventResumed), 2)
	assert.False(t, s.Paused)
}
