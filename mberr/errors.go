// Package mberr defines the shared error taxonomy used across the Map
// Buffer subsystem. Every exported operation in the module wraps its
// failures in one of the sentinel errors below so callers can branch
// with errors.Is, or recover the coarse-grained Kind with Classify.
package mberr

import (
	"errors"
	"fmt"
)

// Kind is a coarse classification of a failure, independent of which
// operation produced it.
type Kind int

const (
	// Unknown is returned by Classify for errors not produced by Wrap.
	Unknown Kind = iota
	// BadInput means the caller violated a precondition: negative label,
	// non-integer label-channel type, dim mismatch, nil/empty required arg.
	BadInput
	// BadShape means a size overflowed 2^31 pixels, or a rectangle escaped
	// its containing matrix, or coordinate counts mismatched.
	BadShape
	// Conflict means an overlap rule or coverage precondition was violated.
	Conflict
	// Exhausted means label+base would exceed the 31-bit label range.
	Exhausted
	// NotFound means a read target, last-frame request, or registry lookup
	// had nothing to return.
	NotFound
	// Internal means an assertion failed: a bug, not a caller mistake.
	Internal
)

func (k Kind) String() string {
	switch k {
	case BadInput:
		return "BadInput"
	case BadShape:
		return "BadShape"
	case Conflict:
		return "Conflict"
	case Exhausted:
		return "Exhausted"
	case NotFound:
		return "NotFound"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

var (
	// ErrBadInput is the sentinel for Kind BadInput.
	ErrBadInput = errors.New("mapbuffer: bad input")
	// ErrBadShape is the sentinel for Kind BadShape.
	ErrBadShape = errors.New("mapbuffer: bad shape")
	// ErrConflict is the sentinel for Kind Conflict.
	ErrConflict = errors.New("mapbuffer: conflict")
	// ErrExhausted is the sentinel for Kind Exhausted.
	ErrExhausted = errors.New("mapbuffer: exhausted")
	// ErrNotFound is the sentinel for Kind NotFound.
	ErrNotFound = errors.New("mapbuffer: not found")
	// ErrInternal is the sentinel for Kind Internal.
	ErrInternal = errors.New("mapbuffer: internal error")
)

func sentinel(k Kind) error {
	switch k {
	case BadInput:
		return ErrBadInput
	case BadShape:
		return ErrBadShape
	case Conflict:
		return ErrConflict
	case Exhausted:
		return ErrExhausted
	case NotFound:
		return ErrNotFound
	case Internal:
		return ErrInternal
	default:
		return nil
	}
}

// Wrap annotates cause with op and the sentinel error for kind, so that
// errors.Is(err, mberr.ErrConflict) (for example) keeps working after the
// wrap. cause may be nil, in which case Wrap builds a bare error from kind
// and op alone.
func Wrap(kind Kind, op string, cause error) error {
	sent := sentinel(kind)
	if sent == nil {
		sent = ErrInternal
	}
	if cause == nil {
		return fmt.Errorf("%s: %w", op, sent)
	}
	return fmt.Errorf("%s: %w: %v", op, sent, cause)
}

// Classify returns the Kind of err, or Unknown if err was not produced by
// Wrap (or wraps none of the package sentinels).
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrBadInput):
		return BadInput
	case errors.Is(err, ErrBadShape):
		return BadShape
	case errors.Is(err, ErrConflict):
		return Conflict
	case errors.Is(err, ErrExhausted):
		return Exhausted
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrInternal):
		return Internal
	default:
		return Unknown
	}
}
