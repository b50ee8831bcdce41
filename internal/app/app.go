package app

import (
	"context"
	"sync"
	"time"

	"breakout-desk/config"
	"breakout-desk/models"
	"breakout-desk/observability"
	"breakout-desk/services"
)

// App struct holds application dependencies using interfaces for testability
type App struct {
	ctx      context.Context
	cfg      *config.Config
	gateway  services.StrategyGateway
	breakers *services.CircuitBreakerRegistry
	sessions *SessionRegistry
	inflight sync.WaitGroup
}

// New creates a new App. breakers may be nil when the circuit breaker is disabled.
func New(cfg *config.Config, gateway services.StrategyGateway, breakers *services.CircuitBreakerRegistry) *App {
	a := &App{
		ctx:      context.Background(),
		cfg:      cfg,
		gateway:  gateway,
		breakers: breakers,
	}
	a.sessions = NewSessionRegistry(gateway, a.DefaultForm(), cfg.HTTP.MaxSessions)
	return a
}

// NewFromConfig wires the strategy service described by cfg, behind a
// circuit breaker when cfg enables one
func NewFromConfig(cfg *config.Config) *App {
	service := services.NewStrategyService(cfg.StrategyAPI.BaseURL)

	var breakers *services.CircuitBreakerRegistry
	if cfg.Breaker.Enabled {
		breakers = services.NewCircuitBreakerRegistry(services.CircuitBreakerConfig{
			MaxRequests:  uint32(cfg.Breaker.MaxRequests),
			Interval:     time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
			Timeout:      time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
			TripAfter:    uint32(cfg.Breaker.TripAfter),
			FailureRatio: float64(cfg.Breaker.FailurePercent) / 100,
		})
		service = service.WithCircuitBreaker(breakers)
	}

	return New(cfg, service, breakers)
}

// Startup is called when the app starts
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// Shutdown waits for background actions to finish or ctx to expire
func (a *App) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		observability.Warn("shutdown with requests still in flight")
	}
}

// Sessions returns the session registry for API handlers
func (a *App) Sessions() *SessionRegistry {
	return a.sessions
}

// DefaultForm returns the form a new session or terminal starts with
func (a *App) DefaultForm() models.FormParameters {
	strategyType, err := models.ParseStrategyType(a.cfg.Form.DefaultStrategyType)
	if err != nil {
		strategyType = models.DefaultStrategyType
	}
	return models.NewFormParameters(a.cfg.Form.DefaultDollars, strategyType)
}

// NewOrchestrator creates a standalone orchestrator with the default form
func (a *App) NewOrchestrator() *Orchestrator {
	return NewOrchestrator(a.gateway, a.DefaultForm())
}

// Go runs action in the background with the app context. Shutdown waits for it.
func (a *App) Go(action func(ctx context.Context)) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		action(a.ctx)
	}()
}

// BreakerStatus reports circuit breaker state, or nil when disabled
func (a *App) BreakerStatus() map[string]services.BreakerStatus {
	if a.breakers == nil {
		return nil
	}
	return a.breakers.Status()
}
