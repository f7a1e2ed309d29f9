// Package gate is the intake facade for the guardrail core. Regeneration
// requests pass the regeneration limiter before any hints are regenerated;
// decision, delegation, and comment requests pass the rate limiter before
// they reach the approval state machine.
package gate

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/guardrailhq/aegis/internal/limiter"
	"github.com/guardrailhq/aegis/internal/ratelimit"
)

// Gate composes the regeneration limiter and the sliding-window rate
// limiter behind the surface route handlers call.
type Gate struct {
	regen  *limiter.RegenLimiter
	rate   *ratelimit.SlidingWindow
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a gate over the given limiters. A nil logger disables logging.
func New(regen *limiter.RegenLimiter, rate *ratelimit.SlidingWindow, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		regen:  regen,
		rate:   rate,
		logger: logger,
		tracer: otel.Tracer("aegis/gate"),
	}
}

// CheckAndIncrement records a regeneration attempt for (tenant, mission,
// field) and reports whether it is within the cap.
func (g *Gate) CheckAndIncrement(ctx context.Context, tenantID, missionID, field string) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "gate.regen_check",
		trace.WithAttributes(
			attribute.String("tenant_id", tenantID),
			attribute.String("mission_id", missionID),
			attribute.String("field", field),
		))
	defer span.End()

	verdict, err := g.regen.Allow(ctx, tenantID, missionID, field)
	if err != nil {
		return false, err
	}
	if !verdict.Allowed {
		g.logger.Info("regeneration attempt denied",
			"tenant_id", tenantID,
			"mission_id", missionID,
			"field", field,
			"count", verdict.Entry.Count,
		)
	}
	span.SetAttributes(attribute.Bool("allowed", verdict.Allowed))
	return verdict.Allowed, nil
}

// GetCount returns the current regeneration attempt count for (tenant,
// mission, field). A lapsed reset window reads as zero.
func (g *Gate) GetCount(ctx context.Context, tenantID, missionID, field string) (int, error) {
	return g.regen.Count(ctx, tenantID, missionID, field)
}

// ResetLimiter clears the regeneration count for (tenant, mission, field).
func (g *Gate) ResetLimiter(ctx context.Context, tenantID, missionID, field string) error {
	return g.regen.Reset(ctx, tenantID, missionID, field)
}

// CheckRate applies the sliding-window rate limit to key. Callers map a
// denial to a throttling response using RetryAfter and ResetAt.
func (g *Gate) CheckRate(ctx context.Context, key string) ratelimit.Decision {
	_, span := g.tracer.Start(ctx, "gate.rate_check",
		trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	decision := g.rate.Check(key)
	if !decision.Allowed {
		g.logger.Info("request rate limited",
			"key", key,
			"retry_after", decision.RetryAfter,
		)
	}
	span.SetAttributes(attribute.Bool("allowed", decision.Allowed))
	return decision
}

// ResetRate clears the rate window for key, or all windows when key is
// empty.
func (g *Gate) ResetRate(key string) {
	if key == "" {
		g.rate.ResetAll()
		return
	}
	g.rate.Reset(key)
}
