package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code is unknown or the room has
	// been torn down. Surfaced only to the requesting connection.
	ErrRoomNotFound = errors.New("room not found or inactive")
	// ErrNotHost marks a host-only action from a non-host connection. Callers
	// treat it as a silent no-op.
	ErrNotHost = errors.New("connection is not the room host")
	// ErrNoActiveQuestion is returned when an answer or results request arrives
	// while no round is live.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrAlreadyAnswered marks a second submission in the same round. Discarded
	// silently so client retries produce no UI noise.
	ErrAlreadyAnswered = errors.New("answer already recorded for this round")
	// ErrSetNotFound indicates the question set could not be loaded.
	ErrSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates an out-of-range question index in a set.
	ErrQuestionNotFound = errors.New("question not found in set")
)
