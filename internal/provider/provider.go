package provider

import (
	"context"
	"log/slog"
	"time"

	"FeedbackAnalyzer/internal/domain"
)

// Service names reported in outcomes when no concrete backend produced the data.
const (
	ServiceFallback = "fallback"
	ServiceNone     = "none"
)

// Outcome is the uniform result header every provider call returns.
// Success with ServiceFallback means the data is a locally computed
// substitute; callers can distinguish it from a provider-backed result.
type Outcome struct {
	Success     bool
	Err         string
	ServiceUsed string
}

// SentimentOutcome carries the stage-1 payload.
type SentimentOutcome struct {
	Outcome
	Data *domain.SentimentResult
}

// ResponseOutcome carries the stage-2 payload.
type ResponseOutcome struct {
	Outcome
	Data *domain.GeneratedResponse
}

// AudioOutcome carries the optional stage-3 payload.
type AudioOutcome struct {
	Outcome
	Data *domain.AudioArtifact
}

// Retry runs fn up to attempts+1 times with exponential backoff between
// tries. The last error is returned when every attempt fails. Callers treat
// retries as opaque; the orchestrator never retries on top of this.
func Retry(ctx context.Context, logger *slog.Logger, op string, attempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			wait := delay * (1 << attempt)
			if logger != nil {
				logger.Warn("provider call failed, retrying",
					"op", op, "attempt", attempt+1, "wait", wait, "error", lastErr)
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
