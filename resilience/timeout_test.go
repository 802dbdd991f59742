package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_CompletesInTime(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 100 * time.Millisecond})

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestTimeout_DeadlineHitIsErrTimeout(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestTimeout_CallerCancellationPassesThrough(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := to.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTimeout_OperationErrorPassesThrough(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	opErr := errors.New("upstream failure")
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Errorf("Execute() error = %v, want %v", err, opErr)
	}
}

func TestNewTimeout_Default(t *testing.T) {
	to := NewTimeout(TimeoutConfig{})
	if to.Config().Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", to.Config().Timeout)
	}
}
