package service

import (
	"errors"
	"fmt"
)

var (
	ErrLetterNotFound      = errors.New("letter not found")
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrAlreadySigned       = errors.New("letter is already signed")
	ErrNotSigned           = errors.New("letter is not signed")
	ErrUnauthenticated     = errors.New("signer identity unavailable")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidToken        = errors.New("invalid token")
)

// TransportError wraps a failure of a backing store. Callers can retry the
// whole operation; nothing about the letter itself is wrong.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
