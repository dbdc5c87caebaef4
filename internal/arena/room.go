package arena

import (
	"sort"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// Room is the authoritative state of one live quiz session. All mutations go
// through its methods; the mutex re-establishes the single-writer-per-room
// guarantee while handlers for different rooms run concurrently.
type Room struct {
	code string

	mu           sync.Mutex
	hostConnID   string
	active       bool
	participants map[string]*domain.Participant // keyed by current connection id
	byIdentity   map[string]string              // durable identity -> connection id
	joinSeq      int
	current      *domain.Question
	now          func() time.Time
}

// HostSnapshot is what a returning host needs to rebuild its view. The current
// question is host-facing and includes the correct index.
type HostSnapshot struct {
	PlayersCount int              `json:"playersCount"`
	IsLive       bool             `json:"isLive"`
	Question     *domain.Question `json:"currentQuestion,omitempty"`
}

// QuestionRestore replays the live round to a rejoining participant. The
// correct index is deliberately absent.
type QuestionRestore struct {
	Text             string   `json:"question"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimit"`
	HasAnswered      bool     `json:"hasAnswered"`
	AnswerIndex      *int     `json:"answerIndex"`
}

// JoinOutcome reports how a join resolved against existing participant records.
type JoinOutcome struct {
	IsNew       bool
	DisplayName string
	PlayerCount int
	Restore     *QuestionRestore
}

// SubmitOutcome reports an accepted answer and the running per-round tally.
type SubmitOutcome struct {
	Accepted      bool
	AnsweredCount int
}

// RoundOutcome is everything showResults produces: the room-wide broadcast
// payload pieces and the durable summary.
type RoundOutcome struct {
	CorrectIndex int
	Stats        []int
	Leaderboard  []domain.LeaderboardEntry
	Top          []domain.LeaderboardEntry
	Result       domain.RoundResult
}

// topN caps the leaderboard slice broadcast to the whole room.
const topN = 5

func NewRoom(code, hostConnID string) *Room {
	return NewRoomWithClock(code, hostConnID, time.Now)
}

// NewRoomWithClock allows deterministic timestamps in tests.
func NewRoomWithClock(code, hostConnID string, now func() time.Time) *Room {
	return &Room{
		code:         code,
		hostConnID:   hostConnID,
		active:       true,
		participants: make(map[string]*domain.Participant),
		byIdentity:   make(map[string]string),
		now:          now,
	}
}

// Code returns the room's join code.
func (r *Room) Code() string { return r.code }

// Active reports whether the room is still open for joins and rounds.
func (r *Room) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// HostConnectionID returns the connection currently authorized to drive the room.
func (r *Room) HostConnectionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostConnID
}

// ResumeHost reassigns host authority to a fresh connection and returns the
// snapshot the returning host rebuilds its UI from.
func (r *Room) ResumeHost(connID string) HostSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hostConnID = connID
	snap := HostSnapshot{
		PlayersCount: len(r.participants),
		IsLive:       r.current != nil,
	}
	if r.current != nil {
		q := *r.current
		snap.Question = &q
	}
	return snap
}

// Deactivate marks the room as torn down. Joins and submissions after this
// resolve to ErrRoomNotFound at the service layer.
func (r *Room) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

// PlayerCount returns the number of known participant records.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// JoinOrRejoin resolves a (connection, durable identity) pair to a participant
// record. Authenticated identities match exactly; anonymous players get
// best-effort continuity by display name. A match relocates the existing record
// to the new connection key, preserving score and answer history.
func (r *Room) JoinOrRejoin(connID, identity, displayName string) JoinOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.lookupLocked(connID, identity, displayName, false)
	isNew := p == nil
	if isNew {
		p = &domain.Participant{
			Identity:    identity,
			DisplayName: displayName,
			JoinOrder:   r.joinSeq,
		}
		r.joinSeq++
	}
	r.relocateLocked(p, connID)

	out := JoinOutcome{
		IsNew:       isNew,
		DisplayName: p.DisplayName,
		PlayerCount: len(r.participants),
	}
	if r.current != nil {
		out.Restore = &QuestionRestore{
			Text:             r.current.Text,
			Options:          append([]string(nil), r.current.Options...),
			TimeLimitSeconds: r.current.TimeLimitSeconds,
			HasAnswered:      p.Answered(),
			AnswerIndex:      p.CurrentAnswer,
		}
	}
	return out
}

// PushQuestion starts a new round. Only the current host connection may push;
// anything else is a silent no-op surfaced as ErrNotHost.
func (r *Room) PushQuestion(connID string, spec domain.QuestionSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connID != r.hostConnID {
		return domain.ErrNotHost
	}
	r.current = &domain.Question{QuestionSpec: spec, StartedAt: r.now()}
	for _, p := range r.participants {
		p.CurrentAnswer = nil
		p.ResponseTimeMs = 0
	}
	return nil
}

// SubmitAnswer records the first answer per durable identity for the live
// round. The submitting connection is re-resolved through the same matching
// rules as join, since it may have reconnected between joining and answering.
func (r *Room) SubmitAnswer(connID, identity, displayName string, answerIndex int, score domain.ScoringPolicy) (SubmitOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return SubmitOutcome{}, domain.ErrNoActiveQuestion
	}

	p := r.participants[connID]
	if p == nil {
		p = r.lookupLocked(connID, identity, displayName, true)
		if p == nil {
			// Unknown submitter: never joined, nothing to score.
			return SubmitOutcome{}, nil
		}
		r.relocateLocked(p, connID)
	}
	if p.Answered() {
		return SubmitOutcome{}, domain.ErrAlreadyAnswered
	}

	elapsed := r.now().Sub(r.current.StartedAt)
	correct := answerIndex == r.current.CorrectIndex
	limit := time.Duration(r.current.TimeLimitSeconds) * time.Second
	points := score(correct, elapsed, limit)

	idx := answerIndex
	p.CurrentAnswer = &idx
	p.ResponseTimeMs = elapsed.Milliseconds()
	p.Score += points
	p.Answers = append(p.Answers, domain.AnswerRecord{
		AnswerIndex:    answerIndex,
		Correct:        correct,
		Points:         points,
		ResponseTimeMs: elapsed.Milliseconds(),
	})

	answered := 0
	for _, q := range r.participants {
		if q.Answered() {
			answered++
		}
	}
	return SubmitOutcome{Accepted: true, AnsweredCount: answered}, nil
}

// ShowResults ends the live round: histogram over submitted answers, full
// leaderboard (score descending, join order on ties), top-N broadcast view and
// the durable RoundResult. Clears the question, so a repeat call is a no-op.
func (r *Room) ShowResults(connID string) (*RoundOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connID != r.hostConnID {
		return nil, domain.ErrNotHost
	}
	if r.current == nil {
		return nil, domain.ErrNoActiveQuestion
	}

	q := r.current
	stats := make([]int, len(q.Options))

	ordered := make([]*domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].JoinOrder < ordered[j].JoinOrder })

	leaderboard := make([]domain.LeaderboardEntry, 0, len(ordered))
	rows := make([]domain.RoundParticipant, 0, len(ordered))
	answered := 0
	for _, p := range ordered {
		if p.Answered() && *p.CurrentAnswer >= 0 && *p.CurrentAnswer < len(stats) {
			stats[*p.CurrentAnswer]++
		}
		if p.Answered() {
			answered++
		}
		leaderboard = append(leaderboard, domain.LeaderboardEntry{Name: p.DisplayName, Score: p.Score})
		rows = append(rows, domain.RoundParticipant{
			Identity:       p.Identity,
			Name:           p.DisplayName,
			AnswerIndex:    p.CurrentAnswer,
			Correct:        p.Answered() && *p.CurrentAnswer == q.CorrectIndex,
			Points:         lastPoints(p),
			ResponseTimeMs: p.ResponseTimeMs,
		})
	}

	// Stable: equal scores keep their relative join order.
	sort.SliceStable(leaderboard, func(i, j int) bool { return leaderboard[i].Score > leaderboard[j].Score })

	top := leaderboard
	if len(top) > topN {
		top = top[:topN]
	}

	out := &RoundOutcome{
		CorrectIndex: q.CorrectIndex,
		Stats:        stats,
		Leaderboard:  leaderboard,
		Top:          append([]domain.LeaderboardEntry(nil), top...),
		Result: domain.RoundResult{
			RoomCode:         r.code,
			Question:         q.Text,
			Options:          append([]string(nil), q.Options...),
			CorrectIndex:     q.CorrectIndex,
			TimeLimitSeconds: q.TimeLimitSeconds,
			StartedAt:        q.StartedAt,
			EndedAt:          r.now(),
			Participants:     rows,
			Stats: domain.RoundStats{
				TotalPlayers:  len(ordered),
				AnsweredCount: answered,
				OptionCounts:  stats,
			},
		},
	}
	r.current = nil
	return out, nil
}

// lookupLocked finds an existing record for the durable identity. The identity
// index covers authenticated users; anonymous records are scanned by display
// name. When anyName is set (the answer path), a name match is accepted even
// for records that carry an identity, mirroring the lenient reconnect rule on
// submission.
func (r *Room) lookupLocked(connID, identity, displayName string, anyName bool) *domain.Participant {
	if p, ok := r.participants[connID]; ok {
		return p
	}
	if identity != "" {
		if oldConn, ok := r.byIdentity[identity]; ok {
			return r.participants[oldConn]
		}
		if !anyName {
			return nil
		}
	}
	for _, p := range r.participants {
		if p.DisplayName != displayName {
			continue
		}
		if anyName || p.Identity == "" {
			return p
		}
	}
	return nil
}

// relocateLocked moves a record to its current connection key and keeps the
// identity index in sync.
func (r *Room) relocateLocked(p *domain.Participant, connID string) {
	if p.ConnectionID != "" && p.ConnectionID != connID {
		delete(r.participants, p.ConnectionID)
	}
	p.ConnectionID = connID
	r.participants[connID] = p
	if p.Identity != "" {
		r.byIdentity[p.Identity] = connID
	}
}

func lastPoints(p *domain.Participant) int {
	if len(p.Answers) == 0 {
		return 0
	}
	return p.Answers[len(p.Answers)-1].Points
}
