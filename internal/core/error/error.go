package errx

import (
	"errors"
	"fmt"
)

// Kind classifies failures for logging, metrics and recovery policy.
type Kind string

const (
	KindInternal              Kind = "internal"
	KindClassifierUnavailable Kind = "classifier_unavailable"
	KindClassifierMalformed   Kind = "classifier_malformed"
	KindCapture               Kind = "capture"
	KindPlayback              Kind = "playback"
	KindStorage               Kind = "storage"
	KindNotFound              Kind = "not_found"
)

const (
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a key is missing.
	RedisNotFoundMessage = "redis key not found"
	// ClassifierUnavailableMessage covers timeouts, transport and upstream errors.
	ClassifierUnavailableMessage = "intent classifier unavailable"
	// ClassifierMalformedMessage covers unparsable or invalid classifier output.
	ClassifierMalformedMessage = "intent classifier returned malformed output"
)

// Sentinels matched by errors.Is against any AppError of the same kind.
var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierMalformed   = errors.New("classifier output malformed")
	ErrCapture               = errors.New("capture failed")
	ErrPlayback              = errors.New("playback failed")
)

var sentinels = map[Kind]error{
	KindClassifierUnavailable: ErrClassifierUnavailable,
	KindClassifierMalformed:   ErrClassifierMalformed,
	KindCapture:               ErrCapture,
	KindPlayback:              ErrPlayback,
}

// AppError wraps an underlying error with a kind and a safe message.
type AppError struct {
	Err     error
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel first, then the wrapped chain.
func (e *AppError) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}

// New creates a new AppError with the provided information.
func New(err error, kind Kind, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Message: message,
	}
}

// Unavailable marks err as a remote classifier availability failure.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return New(err, KindClassifierUnavailable, ClassifierUnavailableMessage)
}

// Malformed marks err as a classifier output failure.
func Malformed(err error) error {
	if err == nil {
		return nil
	}
	return New(err, KindClassifierMalformed, ClassifierMalformedMessage)
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
