package domain

import "errors"

var (
	// ErrThemeNotFound is returned when a theme ID does not exist in the catalog.
	ErrThemeNotFound = errors.New("theme not found")
	// ErrNoQuestions is returned when a theme has no questions of any type.
	ErrNoQuestions = errors.New("not enough questions available")
	// ErrSessionNotFound is returned when a game session ID is unknown.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionFinished is returned when an answer is submitted to a completed session.
	ErrSessionFinished = errors.New("game session already finished")
	// ErrRoomNotFound is returned when a duel room code is unknown.
	ErrRoomNotFound = errors.New("duel room not found")
	// ErrRoomNotJoinable is returned when joining a room that is no longer waiting.
	ErrRoomNotJoinable = errors.New("duel room is not accepting players")
	// ErrRoomFull is returned when a room has reached its member cap.
	ErrRoomFull = errors.New("duel room is full")
	// ErrRoomStarted is returned when starting a room that is already playing.
	ErrRoomStarted = errors.New("duel room already started")
	// ErrNotHost is returned when a non-host attempts a host-only action.
	ErrNotHost = errors.New("only the host may start the game")
	// ErrNotEnoughPlayers is returned when a duel is started with fewer than two members.
	ErrNotEnoughPlayers = errors.New("at least 2 players are required")
	// ErrUserNotFound is returned when a user ID cannot be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned when login verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrorKind buckets core failures so the request layer can map each to a
// transport status without inspecting individual sentinels.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidState
	KindInsufficientContent
	KindUnauthorized
)

// KindOf classifies err into an ErrorKind. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrThemeNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrRoomStarted),
		errors.Is(err, ErrNotEnoughPlayers),
		errors.Is(err, ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ErrNotHost):
		return KindForbidden
	case errors.Is(err, ErrSessionFinished),
		errors.Is(err, ErrRoomNotJoinable):
		return KindInvalidState
	case errors.Is(err, ErrNoQuestions):
		return KindInsufficientContent
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	}
	return KindInternal
}
