package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalid             = errors.New("invalid")
	ErrConflict            = errors.New("conflict")
	ErrTooMany             = errors.New("too many requests")
	ErrInternal            = errors.New("internal")
	ErrCorpusInconsistency = errors.New("corpus inconsistency")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// VectorizationError reports a failed embedding call. Transient failures
// (rate limits, network) may be retried by the caller; permanent ones
// (empty or oversized input, bad credentials) must not.
type VectorizationError struct {
	Transient bool
	Err       error
}

func (e *VectorizationError) Error() string {
	return fmt.Sprintf("vectorization (%s): %v", kind(e.Transient), e.Err)
}

func (e *VectorizationError) Unwrap() error {
	return e.Err
}

func NewVectorizationError(transient bool, err error) error {
	return &VectorizationError{Transient: transient, Err: err}
}

// GenerationError reports a failed text generation call, with the same
// transient/permanent split as VectorizationError.
type GenerationError struct {
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation (%s): %v", kind(e.Transient), e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func NewGenerationError(transient bool, err error) error {
	return &GenerationError{Transient: transient, Err: err}
}

// IsTransient reports whether err is a retryable external failure.
func IsTransient(err error) bool {
	var vErr *VectorizationError
	if errors.As(err, &vErr) {
		return vErr.Transient
	}
	var gErr *GenerationError
	if errors.As(err, &gErr) {
		return gErr.Transient
	}
	return false
}

func IsVectorization(err error) bool {
	var vErr *VectorizationError
	return errors.As(err, &vErr)
}

func IsGeneration(err error) bool {
	var gErr *GenerationError
	return errors.As(err, &gErr)
}

func kind(transient bool) string {
	if transient {
		return "transient"
	}
	return "permanent"
}
