//go:build unix

package cli

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestNotifyReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := NotifyReload(ctx)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("send SIGHUP: %v", err)
	}

	select {
	case _, ok := <-ch:
		if !ok {
			t.Fatal("reload channel closed before a signal was delivered")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload notification after SIGHUP")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A buffered notification may be drained first.
			<-ch
		}
	case <-time.After(time.Second):
		t.Error("reload channel not closed after cancel")
	}
}
