package types

import (
	"errors"
	"testing"
)

func TestErrorTaxonomy_Kind(t *testing.T) {
	cases := []struct {
		err  Kinded
		want Kind
	}{
		{&ValidationError{Field: "x", Reason: "y"}, KindValidation},
		{&ConfigError{Op: "load", Err: errors.New("boom")}, KindConfig},
		{&DeviceNotFoundError{DeviceID: "scale_1"}, KindDeviceNotFnd},
		{&InvalidCommandError{DeviceID: "scale_1", Command: "bogus"}, KindInvalidCmd},
		{&ConnectionError{DeviceID: "scale_1", Transient: true, Err: errors.New("refused")}, KindConnection},
		{&TimeoutError{DeviceID: "scale_1", Command: "readGross"}, KindTimeout},
		{&ProtocolError{DeviceID: "scale_1", Raw: "???"}, KindProtocol},
	}
	for _, tc := range cases {
		t.Run(string(tc.want), func(t *testing.T) {
			if tc.err.Kind() != tc.want {
				t.Errorf("Kind() = %v, want %v", tc.err.Kind(), tc.want)
			}
			if tc.err.Error() == "" {
				t.Error("Error() should not be empty")
			}
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &ConfigError{Op: "save", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ConnectionError{DeviceID: "scale_1", Transient: true, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}
