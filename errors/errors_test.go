package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseLink,
				Kind:   KindSignatureMismatch,
				Path:   []string{"env", "gpio_init"},
				Detail: "want (i32, i32, i32) -> i32",
			},
			contains: []string{"[link]", "signature_mismatch", "env.gpio_init", "want (i32"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseMemory,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[memory]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseHAL,
				Kind:   KindHardware,
				Detail: "open serial",
				Cause:  errors.New("no such device"),
			},
			contains: []string{"[hal]", "hardware", "open serial", "caused by", "no such device"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Hardware("set level", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := OutOfBounds(PhaseMemory, 10, 4, 12)

	if !errors.Is(err, &Error{Phase: PhaseMemory, Kind: KindOutOfBounds}) {
		t.Error("Is should match same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseCall, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different phase")
	}
	if errors.Is(err, &Error{Phase: PhaseMemory, Kind: KindTrap}) {
		t.Error("Is should not match different kind")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLink, KindUnresolvedImport).
		Path("env", "gpio_toggle").
		Value(3).
		Cause(cause).
		Detail("import %d of %d", 3, 5).
		Build()

	if err.Phase != PhaseLink || err.Kind != KindUnresolvedImport {
		t.Errorf("phase/kind = %v/%v", err.Phase, err.Kind)
	}
	if err.Detail != "import 3 of 5" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v", err.Value)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
}

func TestTrap(t *testing.T) {
	err := Trap(42, "unexpected signature")
	if err.Kind != KindTrap || err.Phase != PhaseCall {
		t.Fatalf("got %v/%v", err.Phase, err.Kind)
	}
	if !strings.Contains(err.Error(), "#42") {
		t.Errorf("message %q lacks index", err.Error())
	}
}

func TestLinkError(t *testing.T) {
	var le LinkError
	if le.Err() != nil {
		t.Fatal("empty LinkError should be nil")
	}

	le.Add(KindUnresolvedImport, "env", "gpio_toggle", "")
	le.Add(KindSignatureMismatch, "env", "gpio_init", "want %s", "(i32, i32, i32) -> i32")
	le.Add(KindMissingExport, "", "memory", "")

	err := le.Err()
	if err == nil {
		t.Fatal("expected error")
	}

	msg := err.Error()
	for _, s := range []string{"3 problem(s)", "env:", "gpio_toggle", "(exports):", "memory"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q does not contain %q", msg, s)
		}
	}

	if !errors.Is(err, &LinkError{}) {
		t.Error("errors.Is(LinkError) failed")
	}
	if !errors.Is(err, &Error{Phase: PhaseLink, Kind: KindMissingExport}) {
		t.Error("errors.Is should match a recorded kind")
	}
	if errors.Is(err, &Error{Phase: PhaseLink, Kind: KindTrap}) {
		t.Error("errors.Is matched an unrecorded kind")
	}

	var target *LinkError
	if !errors.As(err, &target) || len(target.Problems) != 3 {
		t.Error("errors.As failed")
	}
}
