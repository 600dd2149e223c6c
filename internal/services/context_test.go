package services_test

import (
	"context"
	"testing"

	"reelcache/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithKind(ctx, "movie")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if kind, ok := services.KindFromContext(ctx); !ok || kind != "movie" {
		t.Fatalf("unexpected kind: %v %v", kind, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if services.WithRequestID(ctx, "") != ctx {
		t.Fatal("expected blank request id to return the same context")
	}
	if _, ok := services.KindFromContext(services.WithKind(ctx, "")); ok {
		t.Fatal("expected blank kind to be ignored")
	}
}
