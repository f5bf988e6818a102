// Package service holds the session coordinator and its collaborators.
//
// Error Handling:
// Every precise failure cause is a sentinel *Error carrying one Kind. Operations
// wrap sentinels with fmt.Errorf("%w") and transports classify with KindOf:
//
//	switch service.KindOf(err) {
//	case service.KindNotFound:
//	    writeError(w, http.StatusNotFound, err.Error())
//	case service.KindInternal, service.KindConflict:
//	    writeError(w, http.StatusInternalServerError, "internal error")
//	default:
//	    writeError(w, http.StatusBadRequest, err.Error())
//	}
package service

import "errors"

// Kind is the closed set of failure classes an operation can report.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidState
	KindAlreadyMember
	KindAlreadyInvited
	KindAlreadyVoted
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindAlreadyMember:
		return "already_member"
	case KindAlreadyInvited:
		return "already_invited"
	case KindAlreadyVoted:
		return "already_voted"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf classifies err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	// HTTP Status: 404
	ErrSessionNotFound   = &Error{KindNotFound, "session not found"}
	ErrUserNotFound      = &Error{KindNotFound, "user not found"}
	ErrCandidateNotFound = &Error{KindNotFound, "restaurant not found in session"}
	ErrNotParticipant    = &Error{KindNotFound, "user is not a participant of the session"}
	ErrNoCandidates      = &Error{KindNotFound, "no restaurants found near location"}

	// HTTP Status: 400
	ErrSessionCompleted   = &Error{KindInvalidState, "session already completed"}
	ErrSessionNotCreated  = &Error{KindInvalidState, "session has already been started"}
	ErrSessionNotMatching = &Error{KindInvalidState, "session is not open for voting"}
	ErrResultNotReady     = &Error{KindInvalidState, "session result is not available yet"}
	ErrNotInvited         = &Error{KindInvalidState, "user has not been invited to the session"}
	ErrInvalidSettings    = &Error{KindInvalidState, "invalid session settings"}

	ErrAlreadyParticipant = &Error{KindAlreadyMember, "user already in session"}
	ErrAlreadyInvited     = &Error{KindAlreadyInvited, "user already invited"}
	ErrAlreadyVoted       = &Error{KindAlreadyVoted, "user already swiped on this restaurant"}

	ErrNotCreator         = &Error{KindForbidden, "only the session creator can do this"}
	ErrNotMember          = &Error{KindForbidden, "only session participants can invite"}
	ErrCreatorCannotLeave = &Error{KindForbidden, "the session creator cannot leave"}

	// HTTP Status: 500
	ErrJoinCodeExhausted = &Error{KindConflict, "failed to generate a unique join code"}
	// The predicate failed but a re-read shows it holding again: another
	// request changed the session in between.
	ErrConcurrentUpdate = &Error{KindConflict, "session changed concurrently, retry"}
)
