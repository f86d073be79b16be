package errx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestAppErrorMatchesKindSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("classify: %w", Unavailable(context.DeadlineExceeded))
	if !errors.Is(err, ErrClassifierUnavailable) {
		t.Fatalf("expected unavailable sentinel to match")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped cause to match")
	}
	if errors.Is(err, ErrClassifierMalformed) {
		t.Fatalf("malformed sentinel must not match an unavailable error")
	}
	if got := KindOf(err); got != KindClassifierUnavailable {
		t.Fatalf("KindOf = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	if KindOf(nil) != "" {
		t.Fatalf("nil error must have no kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("plain errors are internal")
	}
	if Malformed(nil) != nil || Unavailable(nil) != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestWrapRedis(t *testing.T) {
	t.Parallel()

	if WrapRedis(nil) != nil {
		t.Fatalf("nil in, nil out")
	}
	if got := KindOf(WrapRedis(redis.Nil)); got != KindNotFound {
		t.Fatalf("redis.Nil kind = %q", got)
	}
	err := WrapRedis(errors.New("connection refused"))
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindStorage || appErr.Message != RedisErrorMessage {
		t.Fatalf("unexpected wrap: %#v", err)
	}
}
