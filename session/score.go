package session

import (
	"time"

	"github.com/lyz-njeri/Jigsaw-game/config"
)

// Scoring computes the final score of a completed session: a base score
// plus a time bonus that decays to zero over the bonus window, minus a
// fixed penalty per hint used, never below the floor.
type Scoring struct {
	BaseScore       int
	HintPenalty     int
	MinScore        int
	TimeBonusMax    int
	TimeBonusWindow time.Duration
}

// DefaultScoring matches the configuration defaults.
var DefaultScoring = Scoring{
	BaseScore:       1000,
	HintPenalty:     20,
	MinScore:        50,
	TimeBonusMax:    500,
	TimeBonusWindow: 10 * time.Minute,
}

// ScoringFromConfig builds a Scoring from the session config section.
func ScoringFromConfig(cfg config.SessionConfig) Scoring {
	return Scoring{
		BaseScore:       cfg.BaseScore,
		HintPenalty:     cfg.HintPenalty,
		MinScore:        cfg.MinScore,
		TimeBonusMax:    cfg.TimeBonusMax,
		TimeBonusWindow: time.Duration(cfg.TimeBonusWindowSeconds) * time.Second,
	}
}

// Score computes the score for a solve that took elapsed time and used
// hintsUsed hints.
func (s Scoring) Score(elapsed time.Duration, hintsUsed int) int {
	score := s.BaseScore + s.timeBonus(elapsed) - s.HintPenalty*hintsUsed
	if score < s.MinScore {
		return s.MinScore
	}
	return score
}

func (s Scoring) timeBonus(elapsed time.Duration) int {
	if s.TimeBonusWindow <= 0 || elapsed >= s.TimeBonusWindow {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := float64(s.TimeBonusWindow-elapsed) / float64(s.TimeBonusWindow)
	return int(float64(s.TimeBonusMax) * remaining)
}
