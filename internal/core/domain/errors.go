package domain

import "errors"

var (
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionClosed       = errors.New("question is closed")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden by ballot authority")
	ErrGone                 = errors.New("question closed before the vote was received")
	ErrAuthorityUnavailable = errors.New("ballot authority unavailable")
	ErrSignatureMismatch    = errors.New("signed message from authority is not my message")
	ErrChitsUnsigned        = errors.New("not every chit is signed")
	ErrNoResponseChosen     = errors.New("no response chosen")
	ErrUnknownResponse      = errors.New("response is not an option of this question")
	ErrDuplicateResponse    = errors.New("duplicate response option")
	ErrInvalidTransition    = errors.New("invalid ballot state transition")
	ErrVerificationFailed   = errors.New("vote verification failed")
	ErrNotConfirmed         = errors.New("vote not confirmed")
	ErrLoggedOut            = errors.New("session logged out")
	ErrCorruptNamespace     = errors.New("stored namespace is corrupt")
)
