package usecase

import (
	"context"
	"time"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	required map[string]Pinger
	optional map[string]Pinger
	ats      bool
}

// NewHealthUsecase reports degraded when a required dependency fails.
// Optional dependencies (Redis) are reported but never fail the check.
func NewHealthUsecase(required, optional map[string]Pinger, atsConfigured bool) HealthUsecase {
	return &healthUsecase{required: required, optional: optional, ats: atsConfigured}
}

func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, p := range u.required {
		if err := p.Ping(ctx); err != nil {
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	for name, p := range u.optional {
		if p == nil {
			status[name] = "disabled"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			status[name] = "down"
			continue
		}
		status[name] = "up"
	}
	status["ats"] = "disabled"
	if u.ats {
		status["ats"] = "enabled"
	}
	if !healthy {
		status["status"] = "degraded"
	}
	return status, healthy
}
