// Package resolve implements ordered provider fallback: for one capability,
// providers are tried strictly in configured priority order and the first
// usable result wins. Exhausting every provider is never an error — a
// synthetic estimate is substituted at a documented low confidence so
// downstream stages always receive some value.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Reason classifies why a provider signalled Unavailable.
type Reason string

const (
	ReasonTimeout     Reason = "timeout"
	ReasonHTTPError   Reason = "http_error"
	ReasonMalformed   Reason = "malformed_response"
	ReasonMissingKey  Reason = "missing_key"
	ReasonParseError  Reason = "parse_error"
	ReasonUnavailable Reason = "unavailable"
)

// Unavailable signals a routine provider failure. Adapters return it instead
// of surfacing HTTP errors, timeouts, or malformed payloads; the chain
// recovers by moving to the next provider.
type Unavailable struct {
	Provider string
	Reason   Reason
	Status   int // HTTP status, when Reason is ReasonHTTPError
	Err      error
}

func (u *Unavailable) Error() string {
	if u.Status != 0 {
		return fmt.Sprintf("%s unavailable: %s(%d)", u.Provider, u.Reason, u.Status)
	}
	return fmt.Sprintf("%s unavailable: %s", u.Provider, u.Reason)
}

func (u *Unavailable) Unwrap() error { return u.Err }

// EstimatedConfidence is the fixed confidence carried by synthetic values
// produced after every provider in a chain is exhausted.
const EstimatedConfidence = 0.55

// SourceEstimated tags synthetic values.
const SourceEstimated = "estimated"

// Provider is one backend in a fallback chain.
type Provider[In, Out any] interface {
	// Name returns the provenance tag stamped onto winning results.
	Name() string
	// Weight is the fixed confidence assigned to this provider's output.
	Weight() float64
	// Available reports whether the provider is configured (e.g. has an
	// API key). Unconfigured providers are skipped without an attempt.
	Available() bool
	// Resolve performs the external call. Routine failures return
	// *Unavailable; anything else is treated the same way.
	Resolve(ctx context.Context, in In) (Out, error)
}

// Attempt records one provider try for provenance auditing.
type Attempt struct {
	Provider string `json:"provider"`
	Reason   Reason `json:"reason,omitempty"`
	Won      bool   `json:"won"`
}

// Resolution is the outcome of running a chain.
type Resolution[Out any] struct {
	Value      Out
	Source     string
	Confidence float64
	Synthetic  bool
	Attempts   []Attempt
}

// Chain tries providers in priority order for a single capability. A chain
// is stateless across resolutions; there are no same-provider retries.
type Chain[In, Out any] struct {
	capability string
	providers  []Provider[In, Out]
	fallback   func(In) Out
	timeout    time.Duration
}

// NewChain creates a fallback chain. fallback produces the synthetic value
// when every provider is exhausted and must never be nil.
func NewChain[In, Out any](capability string, providers []Provider[In, Out], fallback func(In) Out) *Chain[In, Out] {
	return &Chain[In, Out]{
		capability: capability,
		providers:  providers,
		fallback:   fallback,
		timeout:    8 * time.Second,
	}
}

// WithTimeout sets the per-provider call timeout.
func (c *Chain[In, Out]) WithTimeout(d time.Duration) *Chain[In, Out] {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// Resolve tries each provider in order and returns the first usable result,
// or the synthetic fallback when all are exhausted. It never returns an
// error; the only failure mode is degraded confidence.
func (c *Chain[In, Out]) Resolve(ctx context.Context, in In) Resolution[Out] {
	log := zap.L().With(zap.String("capability", c.capability))

	var attempts []Attempt
	for _, p := range c.providers {
		if !p.Available() {
			attempts = append(attempts, Attempt{Provider: p.Name(), Reason: ReasonMissingKey})
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		out, err := p.Resolve(callCtx, in)
		cancel()

		if err != nil {
			attempts = append(attempts, Attempt{Provider: p.Name(), Reason: reasonOf(err)})
			log.Debug("resolve: provider unavailable, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}

		attempts = append(attempts, Attempt{Provider: p.Name(), Won: true})
		return Resolution[Out]{
			Value:      out,
			Source:     p.Name(),
			Confidence: p.Weight(),
			Attempts:   attempts,
		}
	}

	log.Warn("resolve: all providers exhausted, substituting estimate",
		zap.Int("providers_tried", len(attempts)),
	)
	return Resolution[Out]{
		Value:      c.fallback(in),
		Source:     SourceEstimated,
		Confidence: EstimatedConfidence,
		Synthetic:  true,
		Attempts:   attempts,
	}
}

// reasonOf extracts the Unavailable reason from a provider error, mapping
// context deadline expiry to ReasonTimeout for adapters that return raw
// context errors.
func reasonOf(err error) Reason {
	var u *Unavailable
	if errors.As(err, &u) {
		return u.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonUnavailable
}
