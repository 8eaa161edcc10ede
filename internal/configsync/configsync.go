// Package configsync keeps the client's draft engine configuration in step
// with the remote config store: it loads the remote copy once at start and
// pushes the draft before every single calculation.
package configsync

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"cash-register-client/internal/apperr"
	"cash-register-client/internal/model"
	"cash-register-client/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Policy decides what a failed push means for the calculation after it.
type Policy string

const (
	// PolicyProceed logs the failure and lets the calculation run against
	// whatever configuration the service already holds.
	PolicyProceed Policy = "proceed"
	// PolicyFail aborts the calculation with an error wrapping
	// apperr.ErrConfigPush.
	PolicyFail Policy = "fail"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyProceed, PolicyFail:
		return p, nil
	default:
		return "", fmt.Errorf("%w: push policy %q", apperr.ErrInvalidOption, s)
	}
}

type Remote interface {
	GetConfig(ctx context.Context) (*model.Config, error)
	SetConfig(ctx context.Context, cfg model.Config) error
}

type Synchronizer struct {
	remote   Remote
	policy   Policy
	extended bool

	mu    sync.Mutex
	draft model.Config
}

type Option func(*Synchronizer)

func WithPushPolicy(p Policy) Option {
	return func(s *Synchronizer) {
		s.policy = p
	}
}

// WithExtendedFields allows editing country and special case. When off only
// the divisor is editable; the other fields keep their loaded values.
func WithExtendedFields(enabled bool) Option {
	return func(s *Synchronizer) {
		s.extended = enabled
	}
}

func New(remote Remote, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote: remote,
		policy: PolicyProceed,
		draft:  model.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) Policy() Policy { return s.policy }

func (s *Synchronizer) ExtendedFields() bool { return s.extended }

// Draft returns a copy of the local, unsent configuration.
func (s *Synchronizer) Draft() model.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Load fetches the remote configuration into the draft. A failure is logged
// and leaves the draft at its built-in defaults; it is never returned.
func (s *Synchronizer) Load(ctx context.Context) model.Config {
	logger := observability.LoggerWithTrace(ctx)

	cfg, err := s.remote.GetConfig(ctx)
	if err != nil {
		logger.Warn("config load failed, using defaults",
			zap.String("kind", apperr.Kind(err)),
			zap.Error(err),
		)
		return s.Draft()
	}

	loaded := cfg.WithDefaults()

	s.mu.Lock()
	s.draft = loaded.Clone()
	s.mu.Unlock()

	logger.Info("config loaded",
		zap.Int("random_divisor", loaded.RandomDivisor),
		zap.String("country", loaded.Country),
		zap.Strings("special_cases", loaded.SpecialCases),
	)
	return loaded
}

// Push sends the draft to the remote store. Failures are always logged and
// counted; whether they are returned depends on the policy.
func (s *Synchronizer) Push(ctx context.Context) error {
	draft := s.Draft()

	err := s.remote.SetConfig(ctx, draft)
	if err == nil {
		return nil
	}

	kind := apperr.Kind(err)
	pushFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("policy", string(s.policy)),
	))
	observability.LoggerWithTrace(ctx).Warn("config push failed",
		zap.String("kind", kind),
		zap.String("policy", string(s.policy)),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
		zap.Error(err),
	)

	if s.policy == PolicyFail {
		return fmt.Errorf("%w: %w", apperr.ErrConfigPush, err)
	}
	return nil
}

func (s *Synchronizer) SetDivisor(d int) error {
	if !slices.Contains(model.DivisorOptions, d) {
		return fmt.Errorf("%w: divisor %d, want one of %v", apperr.ErrInvalidOption, d, model.DivisorOptions)
	}

	s.mu.Lock()
	s.draft.RandomDivisor = d
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) SetCountry(country string) error {
	if !s.extended {
		return fmt.Errorf("%w: country", apperr.ErrExtendedDisabled)
	}
	if !slices.Contains(model.CountryOptions, country) {
		return fmt.Errorf("%w: country %q, want one of %v", apperr.ErrInvalidOption, country, model.CountryOptions)
	}

	s.mu.Lock()
	s.draft.Country = country
	s.mu.Unlock()
	return nil
}

// SetSpecialCase selects one special case option; SpecialCaseNone clears
// the list.
func (s *Synchronizer) SetSpecialCase(name string) error {
	if !s.extended {
		return fmt.Errorf("%w: special case", apperr.ErrExtendedDisabled)
	}
	if !slices.Contains(model.SpecialCaseOptions, name) {
		return fmt.Errorf("%w: special case %q, want one of %v", apperr.ErrInvalidOption, name, model.SpecialCaseOptions)
	}

	cases := []string{}
	if name != model.SpecialCaseNone {
		cases = []string{name}
	}

	s.mu.Lock()
	s.draft.SpecialCases = cases
	s.mu.Unlock()
	return nil
}
