package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// None of these may panic when telemetry is disabled.
	m.RecordRequestStart(ctx)
	m.RecordRequestEnd(ctx, "GET", "/users", "200", time.Millisecond)
	m.RecordOperation(ctx, "login", "ok", time.Millisecond)
	m.RecordError(ctx, "INVALID_TOKEN", "session_guard")
}

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false}, "test", "0.0.0", nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a provider even when disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
