package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// CaptureError Tests
// -----------------------------------------------------------------------------

func TestCaptureError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CaptureError
		want string
	}{
		{
			name: "sentinel cause",
			err:  NewCaptureError("start", 1, ErrAlreadyCapturing),
			want: "capture error [op=start, fd=1]: already capturing",
		},
		{
			name: "with message",
			err:  NewCaptureError("close", 2, errors.New("bad file descriptor")).WithMessage("restore stream"),
			want: "capture error [op=close, fd=2]: restore stream: bad file descriptor",
		},
		{
			name: "no cause",
			err:  NewCaptureError("", 1, nil),
			want: "capture error [fd=1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaptureError_Is(t *testing.T) {
	err := NewCaptureError("close", 1, ErrNotCapturing)

	if !Is(err, ErrNotCapturing) {
		t.Error("Is(err, ErrNotCapturing) = false, want true")
	}
	if Is(err, ErrAlreadyCapturing) {
		t.Error("Is(err, ErrAlreadyCapturing) = true, want false")
	}
	if !Is(err, &CaptureError{}) {
		t.Error("Is(err, &CaptureError{}) = false, want true")
	}

	wrapped := fmt.Errorf("session: %w", err)
	var capErr *CaptureError
	if !As(wrapped, &capErr) {
		t.Fatal("As(wrapped, &CaptureError) = false, want true")
	}
	if capErr.FD != 1 || capErr.Op != "close" {
		t.Errorf("CaptureError = {FD: %d, Op: %q}, want {FD: 1, Op: \"close\"}", capErr.FD, capErr.Op)
	}
	if !IsCaptureError(wrapped) {
		t.Error("IsCaptureError(wrapped) = false, want true")
	}
}

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		err     error
		contain string
	}{
		{ErrAlreadyCapturing, "already capturing"},
		{ErrNotCapturing, "not capturing"},
		{ErrInvalidSeriesSize, "multiple of 2"},
		{ErrUnknownCaptureMethod, "unknown capture method"},
	}

	for _, tt := range tests {
		t.Run(tt.contain, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.contain) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.contain)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ControllerError Tests
// -----------------------------------------------------------------------------

func TestControllerError(t *testing.T) {
	err := NewControllerError("dequeued foreign value", ErrUnknownEvent).WithEvent("string")

	want := "controller error [event=string]: dequeued foreign value: unknown event"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrUnknownEvent) {
		t.Error("Is(err, ErrUnknownEvent) = false, want true")
	}
	if !IsFatal(err) {
		t.Error("IsFatal(err) = false, want true")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unknown event sentinel", Wrap(ErrUnknownEvent, "run"), true},
		{"capture error", NewCaptureError("flush", 1, errors.New("io")), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("must be a multiple of 2").
		WithField("display.series_size").
		WithValue(7).
		WithCause(ErrInvalidSeriesSize)

	got := err.Error()
	want := "validation error [field=display.series_size, value=7]: must be a multiple of 2: series size must be a positive multiple of 2"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(err, ErrInvalidInput) = false, want true")
	}
	if !Is(err, ErrInvalidSeriesSize) {
		t.Error("Is(err, ErrInvalidSeriesSize) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Wrap Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrOddLength, "compact %d values", 3)
	if err.Error() != "compact 3 values: cannot compact an odd number of values" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, ErrOddLength) {
		t.Error("Is(Wrapf(ErrOddLength), ErrOddLength) = false, want true")
	}
}
