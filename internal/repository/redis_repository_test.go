package repository

import (
	"context"
	"testing"
)

func TestRedisRepositoriesWithoutClient(t *testing.T) {
	guard := NewIdempotencyRepository(nil, 0)
	for i := 0; i < 2; i++ {
		claimed, err := guard.Claim(context.Background(), "POST /tickets", "k")
		if err != nil || !claimed {
			t.Fatalf("claim %d = %v, %v; want true, nil", i, claimed, err)
		}
	}
	if err := guard.Release(context.Background(), "POST /tickets", "k"); err != nil {
		t.Errorf("Release: %v", err)
	}

	if p := NewSLAPolicyRepository(nil); p != nil {
		t.Errorf("NewSLAPolicyRepository(nil) = %v, want nil", p)
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := idempotencyKey("PUT /sla/policy", "abc"); got != "sla-tickets:idempotency:PUT /sla/policy:abc" {
		t.Errorf("idempotencyKey = %q", got)
	}
}
