package chat

import "errors"

var (
	// ErrAdmission is the class of errors returned by Admit.
	ErrAdmission = errors.New("admission rejected")

	ErrInvalidUsername = newAdmissionError("Invalid username")
	ErrUsernameTooLong = newAdmissionError("Username too long")

	ErrMalformedEvent = errors.New("invalid message format")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// admissionError keeps the client-facing text while still matching ErrAdmission.
type admissionError struct {
	msg string
}

func newAdmissionError(msg string) error {
	return &admissionError{msg: msg}
}

func (e *admissionError) Error() string { return e.msg }

func (e *admissionError) Is(target error) bool { return target == ErrAdmission }
