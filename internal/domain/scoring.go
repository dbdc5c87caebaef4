package domain

import "time"

// ScoringPolicy maps a submission outcome to awarded points. It is a pure
// function so the round state machine never branches on the rule in effect.
type ScoringPolicy func(correct bool, responseTime, timeLimit time.Duration) int

// FlatScoring awards a single point for a correct answer regardless of speed.
func FlatScoring(correct bool, _, _ time.Duration) int {
	if !correct {
		return 0
	}
	return 1
}

// TimeBonusScoring awards up to 100 points, decaying linearly over the time
// limit. An answer after the limit still earns the floor of 10 points.
func TimeBonusScoring(correct bool, responseTime, timeLimit time.Duration) int {
	if !correct {
		return 0
	}
	if timeLimit <= 0 || responseTime >= timeLimit {
		return 10
	}
	remaining := float64(timeLimit-responseTime) / float64(timeLimit)
	points := 10 + int(remaining*90)
	if points > 100 {
		points = 100
	}
	return points
}

// ScoringByName resolves a configured policy name, defaulting to flat scoring.
func ScoringByName(name string) ScoringPolicy {
	switch name {
	case "time-bonus", "timeBonus":
		return TimeBonusScoring
	default:
		return FlatScoring
	}
}
