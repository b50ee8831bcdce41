package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"breakout-desk/observability"
)

// BreakerStrategy names the breaker in front of the strategy service
const BreakerStrategy = "strategy"

// MessageBreakerOpen is shown while the breaker rejects calls
const MessageBreakerOpen = "Strategy service temporarily unavailable"

// CircuitBreakerConfig tunes when the strategy service is considered down.
// A breaker opens once TripAfter calls were made in the current Interval and
// at least FailureRatio of them failed. After Timeout it lets MaxRequests
// probes through.
type CircuitBreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	TripAfter    uint32
	FailureRatio float64
}

// DefaultCircuitBreakerConfig mirrors the config package defaults
var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MaxRequests:  5,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
	TripAfter:    5,
	FailureRatio: 0.5,
}

// CircuitBreakerRegistry hands out one breaker per remote dependency
type CircuitBreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
	config   CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates an empty registry. Zero trip settings
// fall back to the defaults.
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	if config.TripAfter == 0 {
		config.TripAfter = DefaultCircuitBreakerConfig.TripAfter
	}
	if config.FailureRatio <= 0 {
		config.FailureRatio = DefaultCircuitBreakerConfig.FailureRatio
	}
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
		config:   config,
	}
}

// Breaker returns the breaker for name, creating it on first use
func (r *CircuitBreakerRegistry) Breaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:          name,
		MaxRequests:   r.config.MaxRequests,
		Interval:      r.config.Interval,
		Timeout:       r.config.Timeout,
		ReadyToTrip:   r.shouldTrip,
		IsSuccessful:  breakerSuccess,
		OnStateChange: onBreakerChange,
	})
	r.breakers[name] = cb
	observability.GetMetrics().SetCircuitBreakerState(name, gaugeValue(gobreaker.StateClosed))

	return cb
}

func (r *CircuitBreakerRegistry) shouldTrip(counts gobreaker.Counts) bool {
	if counts.Requests < r.config.TripAfter {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= r.config.FailureRatio
}

func onBreakerChange(name string, from, to gobreaker.State) {
	log := observability.WithEndpoint(name)
	if to == gobreaker.StateClosed {
		log.Info("strategy service reachable again", "from", from.String())
	} else {
		log.Warn("strategy service breaker changed", "from", from.String(), "to", to.String())
	}

	metrics := observability.GetMetrics()
	metrics.SetCircuitBreakerState(name, gaugeValue(to))
	if to == gobreaker.StateOpen {
		metrics.RecordCircuitBreakerTrip(name)
	}
}

// Guard runs fn through the named breaker. A rejected call comes back as a
// transport FetchError so callers see a single error type.
func (r *CircuitBreakerRegistry) Guard(ctx context.Context, name string, fn func() error) error {
	_, err := r.Breaker(name).Execute(func() (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.WithEndpoint(name).Debug("strategy call rejected", "reason", err.Error())
		return &FetchError{Kind: ErrorKindTransport, Message: MessageBreakerOpen, Err: err}
	}

	return err
}

// BreakerStatus is a point-in-time view of one breaker, served on /health
type BreakerStatus struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	Failures            uint32 `json:"failures"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// Open reports whether calls are currently being rejected
func (s BreakerStatus) Open() bool {
	return s.State == gobreaker.StateOpen.String()
}

// Status snapshots every breaker created so far
func (r *CircuitBreakerRegistry) Status() map[string]BreakerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := make(map[string]BreakerStatus, len(r.breakers))
	for name, cb := range r.breakers {
		counts := cb.Counts()
		status[name] = BreakerStatus{
			Name:                name,
			State:               cb.State().String(),
			Requests:            counts.Requests,
			Failures:            counts.TotalFailures,
			ConsecutiveFailures: counts.ConsecutiveFailures,
		}
	}
	return status
}

// breakerSuccess treats answers the server deliberately gave as healthy.
// Only server errors and transport failures count toward tripping.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	switch KindOf(err) {
	case ErrorKindNotFound, ErrorKindMalformed:
		return true
	}
	return false
}

// gaugeValue maps a breaker state onto the breaker state gauge:
// 0 closed, 1 half-open, 2 open
func gaugeValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
