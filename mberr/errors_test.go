package mberr_test

import (
	"errors"
	"testing"

	"github.com/cocosip/go-mapbuffer/mberr"
)

func TestWrapClassify(t *testing.T) {
	tests := []struct {
		name string
		kind mberr.Kind
		want error
	}{
		{"bad input", mberr.BadInput, mberr.ErrBadInput},
		{"bad shape", mberr.BadShape, mberr.ErrBadShape},
		{"conflict", mberr.Conflict, mberr.ErrConflict},
		{"exhausted", mberr.Exhausted, mberr.ErrExhausted},
		{"not found", mberr.NotFound, mberr.ErrNotFound},
		{"internal", mberr.Internal, mberr.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mberr.Wrap(tt.kind, "op", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("Wrap(%v) = %v, want wrapping %v", tt.kind, err, tt.want)
			}
			if got := mberr.Classify(err); got != tt.kind {
				t.Errorf("Classify(%v) = %v, want %v", err, got, tt.kind)
			}
		})
	}
}

func TestWrapWithCause(t *testing.T) {
	cause := errors.New("underlying")
	err := mberr.Wrap(mberr.Conflict, "addFrame", cause)
	if !errors.Is(err, mberr.ErrConflict) {
		t.Errorf("expected wrapped error to match ErrConflict, got %v", err)
	}
	if err.Error() == "" {
		t.Errorf("expected non-empty error message")
	}
}

func TestClassifyUnknown(t *testing.T) {
	if got := mberr.Classify(errors.New("plain")); got != mberr.Unknown {
		t.Errorf("Classify(plain) = %v, want Unknown", got)
	}
}
