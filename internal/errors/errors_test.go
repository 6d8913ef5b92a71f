package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessageFallbacks(t *testing.T) {
	inner := errors.New("dial udp: connection refused")
	tests := []struct {
		name string
		err  Error
		want string
	}{
		{"message wins", New(CodeSignalingFailed, "invite failed", inner), "invite failed"},
		{"wrapped error", New(CodeSignalingFailed, "", inner), "dial udp: connection refused"},
		{"code only", New(CodeNoActiveCall, "", nil), "no_active_call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOfWalksWrapChain(t *testing.T) {
	base := New(CodeInvalidAddress, "empty address", nil)
	wrapped := fmt.Errorf("start call: %w", base)

	if got := CodeOf(wrapped); got != CodeInvalidAddress {
		t.Fatalf("CodeOf = %q, want %q", got, CodeInvalidAddress)
	}
	if !IsCode(wrapped, CodeInvalidAddress) {
		t.Fatal("IsCode should match wrapped structured error")
	}
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Fatal("plain errors should report CodeUnknown")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CodePreferencesFailed, "save preference", cause)
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should find the wrapped cause")
	}
}
