package quiz

import (
	"sort"
	"strings"
	"time"
)

// ScoringConfig holds the award constants.
type ScoringConfig struct {
	BasePoints   int // default: 10, awarded to every correct responder
	MaxRankBonus int // default: 5, speed bonus for the fastest responder
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{BasePoints: 10, MaxRankBonus: 5}
}

// ScoringEngine converts a closed answer set into score deltas and ranks.
type ScoringEngine struct {
	config ScoringConfig
}

// NewScoringEngine creates a scoring engine with the provided config.
func NewScoringEngine(config ScoringConfig) *ScoringEngine {
	if config.BasePoints == 0 {
		config = DefaultScoringConfig()
	}
	return &ScoringEngine{config: config}
}

// Submission is one locked answer in ledger insertion order.
type Submission struct {
	PlayerID    string
	Answer      string
	SubmittedAt time.Time
}

// Award is the scoring outcome for one submission. Rank is 0 for incorrect
// answers, 1-based for correct ones ordered by submission time.
type Award struct {
	PlayerID string
	Correct  bool
	Rank     int
	Points   int
	Bonus    int
}

// IsCorrect grades a raw answer against the question. Questions without a
// canonical answer grade everything as correct.
func (e *ScoringEngine) IsCorrect(q Question, answer string) bool {
	if q.Answer == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer))
}

// BonusForRank returns the speed bonus: ranks 1..MaxRankBonus earn
// MaxRankBonus..1 extra points, everyone slower earns none.
func (e *ScoringEngine) BonusForRank(rank int) int {
	if rank < 1 {
		return 0
	}
	bonus := e.config.MaxRankBonus + 1 - rank
	if bonus < 0 {
		return 0
	}
	return bonus
}

// Score grades every submission and ranks the correct responders by
// ascending submission time. The sort is stable, so equal timestamps keep
// ledger insertion order.
func (e *ScoringEngine) Score(q Question, submissions []Submission) []Award {
	awards := make([]Award, len(submissions))
	var correct []int
	for i, sub := range submissions {
		awards[i] = Award{PlayerID: sub.PlayerID, Correct: e.IsCorrect(q, sub.Answer)}
		if awards[i].Correct {
			correct = append(correct, i)
		}
	}

	sort.SliceStable(correct, func(a, b int) bool {
		return submissions[correct[a]].SubmittedAt.Before(submissions[correct[b]].SubmittedAt)
	})

	for rank, idx := range correct {
		awards[idx].Rank = rank + 1
		awards[idx].Bonus = e.BonusForRank(rank + 1)
		awards[idx].Points = e.config.BasePoints + awards[idx].Bonus
	}
	return awards
}
