package arena

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"quiz-arena-service/internal/domain"
)

// RoomStore abstracts how active rooms are kept (in-memory, Redis-marked, etc).
type RoomStore interface {
	// GetOrCreate returns the room for code, allocating it with hostConnID as
	// host when absent. The second result reports whether it already existed.
	GetOrCreate(code, hostConnID string) (*Room, bool)
	Get(code string) (*Room, bool)
	Delete(code string)
}

// ResultWriter persists round summaries. Failures are logged, never surfaced
// to the quiz flow.
type ResultWriter interface {
	SaveRoundResult(ctx context.Context, result domain.RoundResult) error
}

// Gateway is the sole boundary to the pub/sub transport. It carries no
// business logic.
type Gateway interface {
	Broadcast(roomCode, event string, payload any)
	SendToConnection(connID, event string, payload any)
	JoinTopic(connID, roomCode string)
	LeaveTopic(connID, roomCode string)
}

// QuestionBank resolves stored questions hosts can push without retyping them.
type QuestionBank interface {
	GetQuestion(ctx context.Context, setID string, index int) (domain.QuestionSpec, error)
}

// Options tune service behavior that the room contract leaves open.
type Options struct {
	// Scoring is the points rule applied on accepted answers. Defaults to
	// domain.FlatScoring.
	Scoring domain.ScoringPolicy
	// NotifyHostOnRejoin re-triggers the player_joined count when an existing
	// participant relocates to a new connection.
	NotifyHostOnRejoin bool
}

// Service wires the room state machine to the gateway, the question bank and
// result persistence. One instance serves all rooms.
type Service struct {
	rooms   RoomStore
	results ResultWriter
	gateway Gateway
	bank    QuestionBank
	opts    Options
	logger  *zap.Logger
}

func NewService(rooms RoomStore, results ResultWriter, gateway Gateway, bank QuestionBank, opts Options, logger *zap.Logger) *Service {
	if opts.Scoring == nil {
		opts.Scoring = domain.FlatScoring
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rooms:   rooms,
		results: results,
		gateway: gateway,
		bank:    bank,
		opts:    opts,
		logger:  logger,
	}
}

// CreateOrResumeRoom handles the host's create request. An existing active
// room is reclaimed: host authority moves to the new connection and the host
// gets a state snapshot to rebuild from.
func (s *Service) CreateOrResumeRoom(_ context.Context, code, hostConnID string) error {
	room, existed := s.rooms.GetOrCreate(code, hostConnID)
	s.gateway.JoinTopic(hostConnID, code)
	if existed {
		snap := room.ResumeHost(hostConnID)
		s.gateway.SendToConnection(hostConnID, EventHostStateRestored, snap)
		s.logger.Info("host resumed room", zap.String("room", code))
		return nil
	}
	s.logger.Info("room created", zap.String("room", code))
	return nil
}

// DestroyRoom tears a room down. Only the current host may destroy; everyone
// in the room is told to discard their cached session.
func (s *Service) DestroyRoom(_ context.Context, code, requesterConnID string) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.HostConnectionID() != requesterConnID {
		return domain.ErrNotHost
	}
	room.Deactivate()
	s.gateway.Broadcast(code, EventRoomClosed, struct{}{})
	s.rooms.Delete(code)
	s.logger.Info("room destroyed", zap.String("room", code))
	return nil
}

// Join admits a participant, reconciling reconnects to their existing record.
// Inside a live round the current question is replayed to the joining
// connection, including whether it has already answered.
func (s *Service) Join(_ context.Context, code, connID, identity, displayName string) error {
	room, ok := s.rooms.Get(code)
	if !ok || !room.Active() {
		return domain.ErrRoomNotFound
	}

	s.gateway.JoinTopic(connID, code)
	out := room.JoinOrRejoin(connID, identity, displayName)

	if out.IsNew || s.opts.NotifyHostOnRejoin {
		s.gateway.SendToConnection(room.HostConnectionID(), EventPlayerJoined, PlayerJoined{
			Count: out.PlayerCount,
			Name:  out.DisplayName,
		})
	}
	s.gateway.SendToConnection(connID, EventJoinSuccess, map[string]string{"roomCode": code})
	if out.Restore != nil {
		s.gateway.SendToConnection(connID, EventRestoreQuestion, out.Restore)
	}
	return nil
}

// PushQuestion starts a round and broadcasts it, never revealing the correct
// index. Non-host callers produce no visible effect.
func (s *Service) PushQuestion(_ context.Context, code, hostConnID string, spec domain.QuestionSpec) error {
	room, ok := s.rooms.Get(code)
	if !ok || !room.Active() {
		return domain.ErrRoomNotFound
	}
	if err := room.PushQuestion(hostConnID, spec); err != nil {
		return err
	}
	s.gateway.Broadcast(code, EventReceiveQuestion, QuestionBroadcast{
		Text:             spec.Text,
		Options:          spec.Options,
		TimeLimitSeconds: spec.TimeLimitSeconds,
	})
	return nil
}

// PushBankQuestion resolves a stored question and feeds the same round path as
// an inline push.
func (s *Service) PushBankQuestion(ctx context.Context, code, hostConnID, setID string, index int) error {
	if s.bank == nil {
		return domain.ErrSetNotFound
	}
	spec, err := s.bank.GetQuestion(ctx, setID, index)
	if err != nil {
		return err
	}
	return s.PushQuestion(ctx, code, hostConnID, spec)
}

// SubmitAnswer records a participant's answer. First answer per round per
// durable identity wins; duplicates are dropped without error. The host gets a
// live tally of how many have answered; other participants learn nothing.
func (s *Service) SubmitAnswer(_ context.Context, code, connID string, answerIndex int, identity, displayName string) error {
	room, ok := s.rooms.Get(code)
	if !ok || !room.Active() {
		return domain.ErrRoomNotFound
	}
	out, err := room.SubmitAnswer(connID, identity, displayName, answerIndex, s.opts.Scoring)
	if err != nil {
		return err
	}
	if out.Accepted {
		s.gateway.SendToConnection(room.HostConnectionID(), EventAnswerUpdate, AnswerTally{TotalAnswers: out.AnsweredCount})
	}
	return nil
}

// ShowResults ends the round: the reveal broadcast goes out immediately, the
// durable summary is written in the background. A persistence failure never
// reaches players. Repeat calls with no round live are no-ops.
func (s *Service) ShowResults(ctx context.Context, code, hostConnID string) error {
	room, ok := s.rooms.Get(code)
	if !ok || !room.Active() {
		return domain.ErrRoomNotFound
	}
	out, err := room.ShowResults(hostConnID)
	if err != nil {
		return err
	}

	s.gateway.Broadcast(code, EventQuestionResults, ResultsBroadcast{
		CorrectIndex: out.CorrectIndex,
		Stats:        out.Stats,
		Leaderboard:  out.Top,
	})

	go func(result domain.RoundResult) {
		if err := s.results.SaveRoundResult(context.WithoutCancel(ctx), result); err != nil {
			s.logger.Error("save round result failed",
				zap.String("room", result.RoomCode),
				zap.Error(err))
		}
	}(out.Result)
	return nil
}

// Disconnect drops the connection from its room topics. Participant records
// stay in the room so a reconnect can reclaim them.
func (s *Service) Disconnect(_ context.Context, connID string, roomCodes []string) {
	for _, code := range roomCodes {
		s.gateway.LeaveTopic(connID, code)
	}
}

// IsSilent reports whether an operation error should stay invisible to the
// caller, per the authorization and duplicate-submission policy.
func IsSilent(err error) bool {
	return errors.Is(err, domain.ErrNotHost) ||
		errors.Is(err, domain.ErrAlreadyAnswered) ||
		errors.Is(err, domain.ErrNoActiveQuestion)
}
