package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, ex *Exchange) error {
				order = append(order, name+".before")
				err := next(ctx, ex)
				order = append(order, name+".after")
				return err
			}
		}
	}

	handler := Chain(mark("A"), mark("B"))(func(ctx context.Context, ex *Exchange) error {
		order = append(order, "handler")
		return nil
	})
	if err := handler(context.Background(), &Exchange{}); err != nil {
		t.Fatal(err)
	}

	want := []string{"A.before", "B.before", "handler", "B.after", "A.after"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("onion order broken: got %v, want %v", order, want)
		}
	}
}

func TestChainErrorPropagates(t *testing.T) {
	handler := Chain(LoggingMiddleware(slog.Default()))(func(ctx context.Context, ex *Exchange) error {
		return fmt.Errorf("boom")
	})
	if err := handler(context.Background(), &Exchange{Op: 0x10}); err == nil {
		t.Fatal("handler error must propagate through the chain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	// 1 token per second, burst of 2: the third immediate call must fail.
	handler := Chain(RateLimitMiddleware(1, 2))(func(ctx context.Context, ex *Exchange) error {
		return nil
	})

	ex := &Exchange{}
	if err := handler(context.Background(), ex); err != nil {
		t.Fatalf("first call within burst should pass: %v", err)
	}
	if err := handler(context.Background(), ex); err != nil {
		t.Fatalf("second call within burst should pass: %v", err)
	}
	if err := handler(context.Background(), ex); err == nil {
		t.Fatal("call over burst should be rejected")
	}
}

func TestTimeoutMiddlewareCancelsContext(t *testing.T) {
	handler := Chain(TimeoutMiddleware(50*time.Millisecond))(func(ctx context.Context, ex *Exchange) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})

	start := time.Now()
	err := handler(context.Background(), &Exchange{})
	if err == nil {
		t.Fatal("slow handler should be cut off")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout should fire promptly, took %v", elapsed)
	}
}
