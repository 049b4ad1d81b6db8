package observability

import (
	"testing"
	"time"
)

func TestGetEngineSnapshot_CountsAllTurnStatuses(t *testing.T) {
	m := NewMetrics()

	m.IncrTurn("answered")
	m.IncrTurn("answered")
	m.IncrTurn("escalated")
	m.IncrTurn("error")

	m.RecordDecision("escalation_request", "immediate_escalation", 100, 20)
	m.IncrFallback("general_fallback")
	m.RecordTokens(100, 20)

	snap := m.GetEngineSnapshot()

	if snap.TurnsEvaluated != 4 {
		t.Errorf("expected 4 turns evaluated, got %d", snap.TurnsEvaluated)
	}
	if snap.EscalationsOpened != 1 {
		t.Errorf("expected 1 escalation, got %d", snap.EscalationsOpened)
	}
	if snap.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %f", snap.ErrorRate)
	}
	if snap.EscalationRate != 0.25 {
		t.Errorf("expected escalation rate 0.25, got %f", snap.EscalationRate)
	}
	if snap.FallbackRate != 0.25 {
		t.Errorf("expected fallback rate 0.25, got %f", snap.FallbackRate)
	}
	if snap.AvgTokensPerRequest != 30 {
		t.Errorf("expected 30 avg tokens per request, got %f", snap.AvgTokensPerRequest)
	}
}

func TestGetEngineSnapshot_Empty(t *testing.T) {
	m := NewMetrics()

	snap := m.GetEngineSnapshot()

	if snap.TurnsEvaluated != 0 {
		t.Errorf("expected 0 turns, got %d", snap.TurnsEvaluated)
	}
	if snap.ErrorRate != 0 || snap.EscalationRate != 0 {
		t.Errorf("expected zero rates on an empty registry, got %+v", snap)
	}
}

func TestGetEngineSnapshot_CacheHitRate(t *testing.T) {
	m := NewMetrics()

	m.IncrCacheHit("knowledge")
	m.IncrCacheHit("knowledge")
	m.IncrCacheMiss("knowledge")

	snap := m.GetEngineSnapshot()
	want := 2.0 / 3.0
	if diff := snap.CacheHitRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected cache hit rate %f, got %f", want, snap.CacheHitRate)
	}
}

func TestRecordRequestDuration(t *testing.T) {
	m := NewMetrics()

	// Must not panic and must register under the private registry.
	m.RecordRequestDuration("chat_turn", 120*time.Millisecond)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "enquiro_request_duration_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("expected request duration family in the registry")
	}
}
