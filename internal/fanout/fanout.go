// Package fanout implements §4.H: subscription fan-out over prediction
// events, plus the structured ingestion channel that feeds the real-time
// state manager. It is grounded on the same subscribe/broadcast/unsubscribe
// shape as a server-sent-events hub — one buffered delivery channel per
// subscriber, best-effort delivery, and removal on the first failure.
package fanout

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"riskcore/internal/domain"
	"riskcore/internal/infra/observability"
	"riskcore/internal/state"
)

// deliveryBufferSize bounds how far a subscriber may lag before its
// delivery is considered failed and it is dropped (§5 "a subscriber whose
// delivery does not complete promptly is dropped rather than blocking the
// fan-out").
const deliveryBufferSize = 32

// SubscriberState is a subscriber's position in its lifecycle (§4.H).
type SubscriberState string

const (
	StateConnected SubscriberState = "connected"
	StateActive    SubscriberState = "active"
	StateClosing   SubscriberState = "closing"
	StateClosed    SubscriberState = "closed"
)

// Envelope is the wire shape delivered to a subscriber (§6 streaming
// endpoints).
type Envelope struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data,omitempty"`
	Trends interface{} `json:"trends,omitempty"`
}

// Subscriber is an opaque delivery handle. The hub owns the membership set;
// subscribers never reach back into it (§9 "cyclic references").
type Subscriber struct {
	id string

	mu    sync.Mutex
	state SubscriberState
	ch    chan Envelope
}

// ID returns the subscriber's opaque identifier.
func (s *Subscriber) ID() string { return s.id }

// Events returns the channel a delivery loop should range over.
func (s *Subscriber) Events() <-chan Envelope { return s.ch }

func (s *Subscriber) setState(next SubscriberState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}

// State reports the subscriber's current lifecycle state.
func (s *Subscriber) State() SubscriberState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Hub is the subscription fan-out component. It implements
// state.Broadcaster so the real-time state manager can deliver every new
// prediction without knowing anything about transport.
type Hub struct {
	mgr *state.Manager

	mu          sync.Mutex
	subscribers map[string]*Subscriber
}

// NewHub constructs a Hub bound to a state manager.
func NewHub(mgr *state.Manager) *Hub {
	return &Hub{
		mgr:         mgr,
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe registers a new subscriber and immediately queues an initial
// snapshot containing history, trends, and the latest prediction (§4.H).
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id:    uuid.NewString(),
		state: StateConnected,
		ch:    make(chan Envelope, deliveryBufferSize),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()
	observability.SubscriberCount.Set(float64(count))

	history := h.mgr.GetPredictionHistory()
	var latest *domain.Prediction
	if len(history) > 0 {
		l := history[len(history)-1]
		latest = &l
	}

	snapshot := map[string]interface{}{
		"history":            history,
		"trends":             h.mgr.GetTrendSummary(),
		"latest_prediction":  latest,
	}

	sub.setState(StateActive)
	h.deliver(sub, Envelope{Type: "init", Data: snapshot})

	return sub
}

// Unsubscribe removes a subscriber from the hub and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return
	}
	observability.SubscriberCount.Set(float64(count))
	sub.setState(StateClosing)
	close(sub.ch)
	sub.setState(StateClosed)
}

// Broadcast delivers a new prediction to every active subscriber (§4.H).
// It implements state.Broadcaster. Delivery is best-effort and
// per-subscriber independent (§5 "no global total order requirement beyond
// per-subscriber FIFO"); a subscriber that cannot keep up is dropped.
func (h *Hub) Broadcast(pred domain.Prediction) {
	h.mu.Lock()
	targets := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	trends := h.mgr.GetTrendSummary()
	envelope := Envelope{Type: "prediction", Data: pred, Trends: trends}

	delivered := false
	for _, sub := range targets {
		if h.deliver(sub, envelope) {
			delivered = true
			continue
		}
		observability.SubscriberDrops.Inc()
		h.Unsubscribe(sub.id)
	}
	if delivered {
		observability.BroadcastsSent.Inc()
	}
}

// deliver attempts a non-blocking send to a subscriber's channel. A full
// channel means the subscriber is lagging and is treated as a delivery
// failure (§7 SubscriberDeliveryFailure) rather than allowed to block the
// fan-out.
func (h *Hub) deliver(sub *Subscriber, env Envelope) bool {
	select {
	case sub.ch <- env:
		return true
	default:
		return false
	}
}

// HandleControl answers a subscriber's control message: ping, get_trends,
// or get_history (§4.H).
func (h *Hub) HandleControl(msgType string) (Envelope, error) {
	switch msgType {
	case "ping":
		return Envelope{Type: "pong"}, nil
	case "get_trends":
		return Envelope{Type: "trends", Data: h.mgr.GetTrendSummary()}, nil
	case "get_history":
		return Envelope{Type: "history", Data: h.mgr.GetPredictionHistory()}, nil
	default:
		return Envelope{}, fmt.Errorf("unrecognized control message %q", msgType)
	}
}

// SubscriberCount reports how many subscribers are currently registered,
// for observability.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// IngestDomain identifies which state-manager slot an ingestion message
// targets.
const (
	IngestEnvironmental = "env"
	IngestHealth        = "health"
	IngestFood          = "food"
)

// IngestRequest is the structured ingestion message (§6 data-ingestion
// streaming endpoint): a target domain plus the raw metric fields, inlined
// at the top level.
type IngestRequest struct {
	Domain string `json:"domain"`
	domain.RawMetrics
}

// IngestAck is the acknowledgement returned for every ingestion message —
// either an error for a malformed message, or the rate-gate decision and,
// when a prediction was produced, its inference duration (§4.H).
type IngestAck struct {
	Type                string `json:"type"`
	Domain              string `json:"domain,omitempty"`
	Changed             bool   `json:"changed,omitempty"`
	RateLimited         bool   `json:"rate_limited,omitempty"`
	InferenceDurationMs int64  `json:"inference_duration_ms,omitempty"`
	Message             string `json:"message,omitempty"`
}

// Ingest applies a structured update to the state manager and runs
// rate-gated inference, broadcasting to subscribers on success.
func (h *Hub) Ingest(req IngestRequest) IngestAck {
	var changed bool
	switch req.Domain {
	case IngestEnvironmental:
		changed = h.mgr.UpdateEnvironmental(req.RawMetrics)
	case IngestHealth:
		changed = h.mgr.UpdateHealth(req.RawMetrics)
	case IngestFood:
		changed = h.mgr.UpdateFood(req.RawMetrics)
	default:
		return IngestAck{Type: "error", Message: fmt.Sprintf("unrecognized domain %q", req.Domain)}
	}

	if !changed {
		return IngestAck{Type: "ack", Domain: req.Domain, Changed: false}
	}

	outcome := h.mgr.RunInference()
	ack := IngestAck{Type: "ack", Domain: req.Domain, Changed: true, RateLimited: outcome.RateLimited}
	if !outcome.RateLimited {
		ack.InferenceDurationMs = outcome.Prediction.InferenceDurationMs
	}
	return ack
}
