package triage

import "errors"

var (
	// ErrExternalService marks a failed call to the appointment store or the
	// language model. The patient sees an apology instead.
	ErrExternalService = errors.New("triage: external service failed")
	// ErrAmbiguousInput marks a command whose required fields could not be
	// extracted. The patient sees a format hint instead.
	ErrAmbiguousInput = errors.New("triage: ambiguous input")

	ErrUnknownSession = errors.New("triage: unknown session")
	ErrSessionExists  = errors.New("triage: session already exists")

	// ErrInvalidSessionID rejects caller-supplied ids longer than
	// MaxSessionIDLen, the width of the persisted session_id column.
	ErrInvalidSessionID = errors.New("triage: session id too long")
)
