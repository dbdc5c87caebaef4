package domain

import "time"

// Participant is a durable player identity within a room. The record survives
// reconnects: the Identity (account id, or display name for anonymous players)
// is the stable key, the ConnectionID changes every time the client refreshes.
type Participant struct {
	Identity       string
	ConnectionID   string
	DisplayName    string
	Score          int
	CurrentAnswer  *int
	ResponseTimeMs int64
	Answers        []AnswerRecord
	JoinOrder      int
}

// Answered reports whether the participant has submitted in the current round.
func (p *Participant) Answered() bool {
	return p.CurrentAnswer != nil
}

// AnswerRecord is one per-round outcome in a participant's history.
type AnswerRecord struct {
	AnswerIndex    int   `json:"answerIndex"`
	Correct        bool  `json:"correct"`
	Points         int   `json:"points"`
	ResponseTimeMs int64 `json:"responseTimeMs"`
}

// QuestionSpec is the host-supplied (or bank-loaded) definition of one question.
type QuestionSpec struct {
	Text             string   `json:"question"`
	Options          []string `json:"options"`
	CorrectIndex     int      `json:"correctIndex"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

// Question is the live, transient round state: a QuestionSpec stamped with its
// broadcast time.
type Question struct {
	QuestionSpec
	StartedAt time.Time
}

// QuestionSet is a stored collection of questions a host can push from.
type QuestionSet struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Questions []QuestionSpec `json:"questions"`
}

// LeaderboardEntry is the broadcast-friendly view of a participant's standing.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RoundParticipant captures one participant's outcome at results time.
type RoundParticipant struct {
	Identity       string `json:"userId,omitempty"`
	Name           string `json:"name"`
	AnswerIndex    *int   `json:"answerIndex"`
	Correct        bool   `json:"isCorrect"`
	Points         int    `json:"points"`
	ResponseTimeMs int64  `json:"responseTime"`
}

// RoundStats aggregates per-option selection counts for one round.
type RoundStats struct {
	TotalPlayers  int   `json:"totalPlayers"`
	AnsweredCount int   `json:"answeredCount"`
	OptionCounts  []int `json:"optionCounts"`
}

// RoundResult is the durable summary handed to the persistence layer once per
// round. The live engine never reads it back.
type RoundResult struct {
	RoomCode         string             `json:"roomCode"`
	Question         string             `json:"question"`
	Options          []string           `json:"options"`
	CorrectIndex     int                `json:"correctIndex"`
	TimeLimitSeconds int                `json:"timeLimit"`
	StartedAt        time.Time          `json:"startedAt"`
	EndedAt          time.Time          `json:"endedAt"`
	Participants     []RoundParticipant `json:"participants"`
	Stats            RoundStats         `json:"stats"`
}
