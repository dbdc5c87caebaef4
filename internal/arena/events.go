package arena

import "quiz-arena-service/internal/domain"

// Outbound event names on the wire. Broadcast events reach every connection
// subscribed to the room topic; the rest are targeted at a single connection.
const (
	EventHostStateRestored = "host_state_restored"
	EventRoomClosed        = "room_closed"
	EventPlayerJoined      = "player_joined"
	EventJoinSuccess       = "join_success"
	EventRestoreQuestion   = "restore_active_question"
	EventReceiveQuestion   = "receive_question"
	EventAnswerUpdate      = "live_answer_update"
	EventQuestionResults   = "question_results"
	EventError             = "error_msg"
)

// QuestionBroadcast is the student-facing round announcement. The correct
// index is never part of this payload.
type QuestionBroadcast struct {
	Text             string   `json:"question"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

// PlayerJoined tells the host its visible player count changed.
type PlayerJoined struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// AnswerTally is the host-only live progress signal during a round.
type AnswerTally struct {
	TotalAnswers int `json:"totalAnswers"`
}

// ResultsBroadcast reveals the round outcome to the whole room. This is the
// first moment the correct index leaves the server.
type ResultsBroadcast struct {
	CorrectIndex int                       `json:"correctIndex"`
	Stats        []int                     `json:"stats"`
	Leaderboard  []domain.LeaderboardEntry `json:"leaderboard"`
}

// ErrorMessage is scoped to the offending connection, never broadcast.
type ErrorMessage struct {
	Message string `json:"message"`
}
