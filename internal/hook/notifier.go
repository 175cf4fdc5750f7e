package hook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ryanbastic/go-pagegrid/internal/metrics"
)

// BreakerConfig sets the per-endpoint circuit breaker limits.
type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Notifier delivers page events to subscribers asynchronously. Each
// endpoint has its own Breaker, so a dead subscriber is skipped without a
// network round trip until its reset timeout elapses.
type Notifier struct {
	registry *Registry
	rpc      *RPCClient
	breakers BreakerConfig
	logger   *slog.Logger

	mu       sync.Mutex
	circuits map[string]*Breaker
	wg       sync.WaitGroup
}

// NewNotifier creates a Notifier.
func NewNotifier(registry *Registry, rpc *RPCClient, breakers BreakerConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		registry: registry,
		rpc:      rpc,
		breakers: breakers,
		logger:   logger,
		circuits: make(map[string]*Breaker),
	}
}

// Notify starts one delivery per active subscriber of e.Event and returns
// immediately. Delivery errors are logged, never returned.
func (n *Notifier) Notify(e PageEvent) {
	for _, s := range n.registry.For(e.Event) {
		n.wg.Add(1)
		go func(name, endpoint string) {
			defer n.wg.Done()
			n.deliver(name, endpoint, e)
		}(s.Name, s.Endpoint)
	}
}

// Wait blocks until all started deliveries have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Circuit returns the state of endpoint's breaker.
func (n *Notifier) Circuit(endpoint string) BreakerState {
	return n.circuit(endpoint).State()
}

func (n *Notifier) deliver(name, endpoint string, e PageEvent) {
	err := n.circuit(endpoint).Execute(func() error {
		resp, err := n.rpc.Call(context.Background(), endpoint, string(e.Event), e)
		if err != nil {
			return err
		}
		if resp.Error != nil {
			// The subscriber is up and answered; do not trip the breaker.
			n.logger.Warn("hook subscriber returned error",
				"subscriber", name, "endpoint", endpoint, "event", e.Event, "error", resp.Error)
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrCircuitOpen):
		metrics.ObserveHookDelivery(string(e.Event), "skipped")
		n.logger.Debug("hook subscriber skipped, circuit open", "subscriber", name, "endpoint", endpoint)
	case err != nil:
		metrics.ObserveHookDelivery(string(e.Event), "error")
		n.logger.Error("hook delivery failed",
			"subscriber", name, "endpoint", endpoint, "event", e.Event, "page_id", e.PageID, "error", err)
	default:
		metrics.ObserveHookDelivery(string(e.Event), "ok")
	}
}

func (n *Notifier) circuit(endpoint string) *Breaker {
	n.mu.Lock()
	defer n.mu.Unlock()
	b, ok := n.circuits[endpoint]
	if !ok {
		b = NewBreaker(n.breakers.MaxFailures, n.breakers.ResetTimeout)
		n.circuits[endpoint] = b
	}
	return b
}
