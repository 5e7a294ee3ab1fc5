package metrics

import "testing"

func TestWebhookMetricsCountersAccumulate(t *testing.T) {
	m := NewWebhookMetrics()

	m.Enqueued.Add(3)
	m.Dropped.Add(1)
	m.Delivered.Add(2)
	m.Failed.Add(1)

	got := m.GetMetrics()
	if got["enqueued"].(int64) != 3 {
		t.Fatalf("expected 3 enqueued, got %v", got["enqueued"])
	}
	if got["dropped"].(int64) != 1 {
		t.Fatalf("expected 1 dropped, got %v", got["dropped"])
	}
	if got["delivered"].(int64) != 2 {
		t.Fatalf("expected 2 delivered, got %v", got["delivered"])
	}
	if got["failed"].(int64) != 1 {
		t.Fatalf("expected 1 failed, got %v", got["failed"])
	}
}

func TestNewWebhookMetricsStartsAtZero(t *testing.T) {
	m := NewWebhookMetrics()

	got := m.GetMetrics()
	for k, v := range got {
		if v.(int64) != 0 {
			t.Fatalf("expected %s to start at zero, got %v", k, v)
		}
	}
}
