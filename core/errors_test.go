package core_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/eyecat/mrjob/core"
)

// TestReexportedErrorsMatchStdlib verifies re-exported errors match stdlib.
func TestReexportedErrorsMatchStdlib(t *testing.T) {
	tests := []struct {
		name      string
		coreErr   error
		stdlibErr error
	}{
		{"ErrNotExist", core.ErrNotExist, fs.ErrNotExist},
		{"ErrExist", core.ErrExist, fs.ErrExist},
		{"ErrPermission", core.ErrPermission, fs.ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.coreErr, tt.stdlibErr) {
				t.Errorf("%s does not match stdlib: core=%v, stdlib=%v",
					tt.name, tt.coreErr, tt.stdlibErr)
			}
		})
	}
}

func TestOpErrorMessage(t *testing.T) {
	err := core.NewOpError("s3", "list", "s3://bucket/x", errors.New("timeout"))
	want := "s3: list s3://bucket/x: timeout"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := core.NewOpError("local", "open", "/x", cause)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("OpError should unwrap to its cause")
	}
}

func TestNewOpErrorNil(t *testing.T) {
	if err := core.NewOpError("local", "open", "/x", nil); err != nil {
		t.Errorf("NewOpError(nil) = %v, want nil", err)
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"op error", core.NewOpError("local", "list", "/x", errors.New("boom")), true},
		{"wrapped op error", fmt.Errorf("context: %w", core.NewOpError("s3", "size", "s3://b", errors.New("boom"))), true},
		{"unhandled path", core.ErrUnhandledPath, false},
		{"unknown extension", core.ErrUnknownExtension, false},
		{"path error", &fs.PathError{Op: "remove", Path: "/x", Err: core.ErrUnhandledPath}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}
