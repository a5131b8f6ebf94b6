package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_ZeroKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: time.Second})
	if Short() != time.Second {
		t.Errorf("Short: got %v, want 1s", Short())
	}
	if Directory() != DefaultDirectory {
		t.Errorf("Directory: got %v, want default", Directory())
	}

	Reset()
	if Short() != DefaultShort {
		t.Errorf("Short after Reset: got %v", Short())
	}
}

func TestWithTimeout_LogsOnDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "slow search")
	<-ctx.Done()
	cancel()

	if n := logs.FilterMessage("operation timed out").Len(); n != 1 {
		t.Fatalf("expected one timeout warning, got %d", n)
	}
	if got := logs.All()[0].ContextMap()["operation"]; got != "slow search" {
		t.Errorf("operation field: got %v", got)
	}
}

func TestWithTimeout_QuietWhenCancelledEarly(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "fast")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %d", logs.Len())
	}
}
