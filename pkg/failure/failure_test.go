package failure

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

type reportError struct{}

func (reportError) Error() string     { return "report" }
func (reportError) FailureKind() Kind { return KindConfiguration }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"plain", errors.New("boom"), KindNone},
		{"configuration", Configuration("privacy.k", "missing required key: %s", "k"), KindConfiguration},
		{"io", IO("/tmp/x", "cannot open", os.ErrNotExist), KindIO},
		{"engine", Engine("no output", nil), KindEngine},
		{"wrapped", fmt.Errorf("job: %w", Engine("no output", nil)), KindEngine},
		{"kinded", fmt.Errorf("load: %w", reportError{}), KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_UnwrapAndMessage(t *testing.T) {
	err := IO("/data/h.csv", "cannot open hierarchy file", os.ErrNotExist)

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected IO error to unwrap to os.ErrNotExist")
	}
	if !strings.HasPrefix(err.Error(), "io error: cannot open hierarchy file") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !Is(err, KindIO) {
		t.Error("expected Is(err, KindIO)")
	}
}
