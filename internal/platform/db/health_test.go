package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPoolStats_JSONShape(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      10,
		IdleConns:       5,
		AcquiredConns:   5,
		MaxConns:        20,
		AcquireCount:    100,
		AcquireDuration: "1.5s",
		Healthy:         true,
	}

	b, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal pool stats: %v", err)
	}

	// The health endpoint serves this struct directly, so the field names are
	// part of the API.
	for _, key := range []string{
		"total_conns", "idle_conns", "acquired_conns", "max_conns",
		"acquire_count", "acquire_duration", "healthy",
	} {
		if !strings.Contains(string(b), `"`+key+`"`) {
			t.Errorf("expected key %q in %s", key, b)
		}
	}

	var got PoolStats
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal pool stats: %v", err)
	}
	if got.TotalConns != 10 || got.MaxConns != 20 {
		t.Errorf("round-trip changed conn counts: %+v", got)
	}
	if got.AcquireDuration != "1.5s" {
		t.Errorf("expected acquire_duration 1.5s, got %q", got.AcquireDuration)
	}
	if !got.Healthy {
		t.Error("expected healthy true after round-trip")
	}
}

func TestPoolStats_DrainedPoolIsUnhealthy(t *testing.T) {
	// snapshotPool derives Healthy from TotalConns > 0; a drained pool must
	// report unhealthy so the /health/db endpoint flips to 503.
	stats := &PoolStats{TotalConns: 0, MaxConns: 20, AcquireDuration: "0s"}
	if stats.Healthy {
		t.Error("expected Healthy false for a pool with no connections")
	}
}
