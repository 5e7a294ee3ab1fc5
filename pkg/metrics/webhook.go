package metrics

import "sync/atomic"

// WebhookMetrics tracks delivery pipeline outcomes for observability only
// (not exposed externally in this revision — these are in-process
// counters a host may scrape, not part of the RPC surface).
type WebhookMetrics struct {
	Enqueued  atomic.Int64
	Dropped   atomic.Int64
	Delivered atomic.Int64
	Failed    atomic.Int64
}

func NewWebhookMetrics() *WebhookMetrics {
	return &WebhookMetrics{}
}

func (m *WebhookMetrics) GetMetrics() map[string]any {
	return map[string]any{
		"enqueued":  m.Enqueued.Load(),
		"dropped":   m.Dropped.Load(),
		"delivered": m.Delivered.Load(),
		"failed":    m.Failed.Load(),
	}
}
