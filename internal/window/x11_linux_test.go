//go:build linux

package window

import (
	"context"
	"errors"
	"testing"
)

func TestX11Watcher_FailedStartCanRetry(t *testing.T) {
	started.Store(false)
	t.Cleanup(func() { started.Store(false) })
	t.Setenv("DISPLAY", ":64999")

	out := make(chan Info, 1)
	for i := range 2 {
		err := NewX11Watcher().Start(context.Background(), out)
		if err == nil {
			t.Fatalf("Start() attempt %d error = nil, want connection failure", i)
		}
		if errors.Is(err, ErrAlreadyStarted) {
			t.Fatalf("Start() attempt %d error = %v, want connection failure", i, err)
		}
	}
}
