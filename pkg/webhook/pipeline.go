package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/errors"
	"github.com/agentbridge/a2acore/pkg/security"
)

// Defaults for the host-controlled inputs.
const (
	DefaultQueueCapacity = 1000
	DefaultWorkerCount   = 4
	DefaultTimeout       = 30 * time.Second
)

var reservedHeaders = map[string]struct{}{
	"Content-Type":   {},
	"Content-Length": {},
	"Host":           {},
}

// attempt is one scheduled webhook delivery, captured by value at enqueue
// time so that a config deletion mid-flight cannot mutate it (see the open
// question, resolved: delete only prevents future enqueues).
type attempt struct {
	taskID  string
	url     string
	auth    *a2a.PushAuth
	payload outboundPayload
	count   int
}

// outboundPayload is the JSON body posted to the receiver, with camelCase
// field names.
type outboundPayload struct {
	Event     string   `json:"event"`
	Task      *a2a.Task `json:"task"`
	Timestamp string   `json:"timestamp"`
	AgentID   string   `json:"agentId"`
}

// DeliveryStatus tracks one attempt's outcome, for observability only; not
// exposed externally in this revision.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

/*
Pipeline is the bounded, process-wide async webhook delivery queue: a
fixed-capacity channel drained by N worker goroutines, each re-validating
the destination URL and applying the configured retry schedule.
*/
type Pipeline struct {
	queue      chan attempt
	client     *http.Client
	retry      *errors.RetryConfig
	timeout    time.Duration
	agentID    string
	throttle   *hostThrottleRegistry
	selfSigned *SelfSignedSigner

	metricsEnqueued  func()
	metricsDropped   func()
	metricsDelivered func()
	metricsFailed    func()
}

type Option func(*Pipeline)

func WithRetryConfig(cfg *errors.RetryConfig) Option {
	return func(p *Pipeline) { p.retry = cfg }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func WithSelfSignedSigner(s *SelfSignedSigner) Option {
	return func(p *Pipeline) { p.selfSigned = s }
}

func WithMetricsHooks(enqueued, dropped, delivered, failed func()) Option {
	return func(p *Pipeline) {
		p.metricsEnqueued = enqueued
		p.metricsDropped = dropped
		p.metricsDelivered = delivered
		p.metricsFailed = failed
	}
}

// NewPipeline starts workerCount worker goroutines draining a
// queueCapacity-deep queue. Call Shutdown to stop them and drain in-flight
// work.
func NewPipeline(agentID string, queueCapacity, workerCount int, opts ...Option) *Pipeline {
	p := &Pipeline{
		queue:    make(chan attempt, queueCapacity),
		client:   &http.Client{},
		retry:    errors.DefaultRetryConfig(),
		timeout:  DefaultTimeout,
		agentID:  agentID,
		throttle: newHostThrottleRegistry(10, 20),
	}

	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

// Enqueue schedules one delivery attempt, fire-and-forget. Never blocks: if
// the queue is at capacity the event is dropped and logged, per the
// documented best-effort semantics.
func (p *Pipeline) Enqueue(taskID string, event a2a.TaskEvent, task *a2a.Task, cfg a2a.PushNotificationConfig) {
	a := attempt{
		taskID: taskID,
		url:    cfg.URL,
		auth:   cfg.Auth,
		payload: outboundPayload{
			Event:     string(event),
			Task:      task,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			AgentID:   p.agentID,
		},
		count: 1,
	}

	select {
	case p.queue <- a:
		if p.metricsEnqueued != nil {
			p.metricsEnqueued()
		}
	default:
		log.Warn("webhook queue full, dropping attempt", "taskId", taskID, "event", event, "url", cfg.URL)
		if p.metricsDropped != nil {
			p.metricsDropped()
		}
	}
}

func (p *Pipeline) worker() {
	for a := range p.queue {
		p.deliver(a)
	}
}

func (p *Pipeline) deliver(a attempt) {
	if err := security.ValidateWebhookURL(a.url); err != nil {
		log.Error("webhook url failed re-validation, dropping", "taskId", a.taskID, "error", err)
		p.markFailed()
		return
	}

	if u, err := url.Parse(a.url); err == nil {
		if !p.throttle.forHost(u.Hostname()).Allow() {
			// Throttled: requeue the same attempt later without counting it
			// against MaxAttempts.
			time.AfterFunc(p.retry.DelayForAttempt(a.count), func() {
				select {
				case p.queue <- a:
				default:
					log.Warn("webhook queue full on throttled requeue, dropping attempt", "taskId", a.taskID)
					p.markFailed()
				}
			})
			return
		}
	}

	status, err := p.post(a)

	switch {
	case err == nil && status >= 200 && status < 300:
		log.Info("webhook delivered", "taskId", a.taskID, "event", a.payload.Event, "attempt", a.count)
		p.markDelivered()

	case err == nil && status >= 400 && status < 500 && status != http.StatusTooManyRequests:
		log.Error("webhook permanently failed", "taskId", a.taskID, "status", status)
		p.markFailed()

	default:
		p.scheduleRetry(a)
	}
}

func (p *Pipeline) post(a attempt) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	body, err := json.Marshal(a.payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	p.injectAuth(req, a.auth)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (p *Pipeline) injectAuth(req *http.Request, auth *a2a.PushAuth) {
	if auth == nil {
		return
	}

	switch auth.Kind {
	case a2a.PushAuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.BearerToken)

	case a2a.PushAuthCustom:
		for k, v := range auth.CustomHeaders {
			if _, reserved := reservedHeaders[k]; reserved {
				continue
			}
			req.Header.Set(k, v)
		}

	case a2a.PushAuthSelfSigned:
		if p.selfSigned == nil {
			return
		}
		if token, err := p.selfSigned.SignBearerToken(); err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// scheduleRetry schedules another attempt after the exponential backoff
// delay for a.count, or drops the attempt permanently once max_attempts is
// exhausted.
func (p *Pipeline) scheduleRetry(a attempt) {
	if a.count >= p.retry.MaxAttempts {
		log.Error("webhook retries exhausted, dropping", "taskId", a.taskID, "attempts", a.count)
		p.markFailed()
		return
	}

	delay := p.retry.DelayForAttempt(a.count)
	next := a
	next.count++

	time.AfterFunc(delay, func() {
		select {
		case p.queue <- next:
		default:
			log.Warn("webhook queue full on retry, dropping attempt", "taskId", a.taskID)
			p.markFailed()
		}
	})
}

func (p *Pipeline) markDelivered() {
	if p.metricsDelivered != nil {
		p.metricsDelivered()
	}
}

func (p *Pipeline) markFailed() {
	if p.metricsFailed != nil {
		p.metricsFailed()
	}
}

// Shutdown stops accepting new work and closes the queue, letting any
// workers currently draining it finish their current attempt. It does not
// wait for scheduled retries (time.AfterFunc timers) to fire.
func (p *Pipeline) Shutdown() {
	close(p.queue)
}
