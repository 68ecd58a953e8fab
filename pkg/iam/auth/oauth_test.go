package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/iam/auth"
)

// --- State manager tests ---

func TestNewState_Unique(t *testing.T) {
	a, err := auth.NewState()
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	b, err := auth.NewState()
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct states")
	}
	if a == "" {
		t.Fatal("expected a non-empty state")
	}
}

func TestInMemoryStateManager_ConsumeIsOneShot(t *testing.T) {
	m := auth.NewInMemoryStateManager(time.Minute)
	ctx := context.Background()

	if err := m.Store(ctx, "state-1", "/dashboard"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	redirect, err := m.Consume(ctx, "state-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if redirect != "/dashboard" {
		t.Fatalf("expected /dashboard, got %q", redirect)
	}

	if _, err := m.Consume(ctx, "state-1"); err == nil {
		t.Fatal("expected second consume to fail")
	}
}

func TestInMemoryStateManager_UnknownStateRejected(t *testing.T) {
	m := auth.NewInMemoryStateManager(time.Minute)

	if _, err := m.Consume(context.Background(), "never-stored"); err == nil {
		t.Fatal("expected unknown state to be rejected")
	}
}

func TestInMemoryStateManager_ExpiredStateRejected(t *testing.T) {
	m := auth.NewInMemoryStateManager(-time.Second)
	ctx := context.Background()

	if err := m.Store(ctx, "state-1", "/"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := m.Consume(ctx, "state-1"); err == nil {
		t.Fatal("expected expired state to be rejected")
	}
}
