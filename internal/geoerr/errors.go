// Package geoerr defines the terminal error kinds raised by the raster extraction pipeline.
package geoerr

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Kind classifies a pipeline failure.
type Kind string

// Error kinds. None of them are retried.
const (
	KindAOIRead         Kind = "AOIReadError"
	KindArchiveNotFound Kind = "ArchiveNotFoundError"
	KindBandNotFound    Kind = "BandNotFoundError"
	KindCRSResolution   Kind = "CRSResolutionError"
	KindOverlap         Kind = "OverlapError"
	KindClip            Kind = "ClipError"
	KindNoValidPixels   Kind = "NoValidPixelsError"
	KindMonthValidation Kind = "MonthValidationError"
)

// Error wraps an error with its pipeline kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: eris.Errorf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: eris.Wrapf(err, format, args...)}
}

// WithContext prefixes the message of err while keeping its kind at the top of
// the chain. Errors without a kind are wrapped with eris.
func WithContext(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return &Error{Kind: ge.Kind, Err: eris.Wrapf(ge.Err, format, args...)}
	}
	return eris.Wrapf(err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return "", false
}

// Is reports whether err (or any error in its chain) has the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
