package extract

import (
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultOutboundRPS   rate.Limit = 20
	defaultOutboundBurst int        = 40
	breakerOpenDuration             = 30 * time.Second
	breakerHalfOpenTrial            = 3
)

// HostThrottle rate-limits and circuit-breaks outbound calls per remote
// host, repurposing internal/api/middleware's InMemoryRateLimiter pattern
// (inbound request throttling) for outbound extractor calls, paired with
// a gobreaker.CircuitBreaker per host so a failing source stops being
// hammered mid-run (spec.md §7's "Source unavailable" kind).
type HostThrottle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
	rps      rate.Limit
	burst    int
}

// NewHostThrottle builds a throttle with the given steady-state rate and
// burst; zero values fall back to the package defaults.
func NewHostThrottle(rps rate.Limit, burst int) *HostThrottle {
	if rps <= 0 {
		rps = defaultOutboundRPS
	}

	if burst <= 0 {
		burst = defaultOutboundBurst
	}

	return &HostThrottle{
		limiters: map[string]*rate.Limiter{},
		breakers: map[string]*gobreaker.CircuitBreaker{},
		rps:      rps,
		burst:    burst,
	}
}

func (h *HostThrottle) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.limiters[host] = l
	}

	return l
}

func (h *HostThrottle) breakerFor(host string) *gobreaker.CircuitBreaker {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.breakers[host]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    host,
			Timeout: breakerOpenDuration,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerHalfOpenTrial
			},
		})
		h.breakers[host] = b
	}

	return b
}

// RoundTrip implements http.RoundTripper, waiting for the per-host token
// bucket and routing the actual call through the per-host breaker.
func (h *HostThrottle) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host

	if err := h.limiterFor(host).Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := h.breakerFor(host).Execute(func() (any, error) {
		return http.DefaultTransport.RoundTrip(req)
	})
	if err != nil {
		return nil, err
	}

	return resp.(*http.Response), nil
}

// Client returns an *http.Client whose Transport enforces this throttle.
func (h *HostThrottle) Client() *http.Client {
	return &http.Client{Transport: h}
}
