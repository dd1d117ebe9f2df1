package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// BackendConfig places a backend in the chain with its gate and call
// timeout.
type BackendConfig struct {
	Backend Backend
	Policy  GatePolicy
	Timeout time.Duration
}

// ScanResult is an accepted record and the backend that produced it.
type ScanResult struct {
	Record     dto.ExtractedRecord
	Provenance string
	Attempts   []dto.BackendAttempt
}

// ScanService is the fallback orchestrator. Backends are tried in the order
// given; the first candidate that passes its backend's gate is returned.
type ScanService struct {
	backends     []BackendConfig
	availabilityTimeout time.Duration
}

func NewScanService(availabilityTimeout time.Duration, backends ...BackendConfig) *ScanService {
	return &ScanService{
		backends:     backends,
		availabilityTimeout: availabilityTimeout,
	}
}

// Start initializes every backend that owns an engine handle. A backend
// that fails to start stays in the chain and reports itself unavailable.
func (s *ScanService) Start(ctx context.Context) {
	for _, b := range s.backends {
		lc, ok := b.Backend.(Lifecycle)
		if !ok {
			continue
		}
		if err := lc.Init(ctx); err != nil {
			logger.Warn(ctx, "backend failed to start", "backend", b.Backend.Name(), "error", err)
		}
	}
}

// Close shuts down engine handles in reverse order.
func (s *ScanService) Close() error {
	var errs []error
	for i := len(s.backends) - 1; i >= 0; i-- {
		if lc, ok := s.backends[i].Backend.(Lifecycle); ok {
			if err := lc.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.backends[i].Backend.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Scan runs the fallback chain over one image. The only error it returns
// is a *dto.ExhaustedError.
func (s *ScanService) Scan(ctx context.Context, img []byte) (*ScanResult, error) {
	attempts := make([]dto.BackendAttempt, 0, len(s.backends))

	for _, b := range s.backends {
		name := b.Backend.Name()
		log := logger.WithContext(ctx).With("backend", name)

		if err := ctx.Err(); err != nil {
			attempts = append(attempts, dto.BackendAttempt{
				Backend: name,
				Outcome: dto.OutcomeErrored,
				Err:     fmt.Errorf("%w: %w", dto.ErrEngineCallFailed, err),
			})
			continue
		}

		if !s.available(ctx, b.Backend) {
			err := fmt.Errorf("%w: %s availability check failed", dto.ErrEngineUnavailable, name)
			log.Warn("backend unavailable, skipping")
			attempts = append(attempts, dto.BackendAttempt{Backend: name, Outcome: dto.OutcomeErrored, Err: err})
			continue
		}

		start := time.Now()
		candidate, err := callWithTimeout(ctx, b.Timeout, func(ctx context.Context) (dto.Candidate, error) {
			return b.Backend.Scan(ctx, img)
		})
		latency := time.Since(start).Milliseconds()

		if err != nil {
			outcome := dto.OutcomeErrored
			// an adapter that recognized nothing usable rejects its own result
			if errors.Is(err, dto.ErrLowConfidence) {
				outcome = dto.OutcomeRejected
			}
			log.Warn("backend call failed", "latency_ms", latency, "outcome", outcome, "error", err)
			attempts = append(attempts, dto.BackendAttempt{Backend: name, Outcome: outcome, Err: err})
			continue
		}

		record := candidate.Record
		if err := b.Policy.Evaluate(candidate); err != nil {
			log.Warn("candidate rejected by quality gate",
				"latency_ms", latency, "confidence", confidenceAttr(candidate.Confidence), "error", err)
			attempts = append(attempts, dto.BackendAttempt{Backend: name, Outcome: dto.OutcomeRejected, Record: &record, Err: err})
			continue
		}

		log.Info("candidate accepted", "latency_ms", latency, "confidence", confidenceAttr(candidate.Confidence))
		attempts = append(attempts, dto.BackendAttempt{Backend: name, Outcome: dto.OutcomeAccepted, Record: &record})
		return &ScanResult{Record: record, Provenance: name, Attempts: attempts}, nil
	}

	exhausted := &dto.ExhaustedError{Attempts: attempts}
	logger.Warn(ctx, "all backends exhausted", "error", exhausted)
	return nil, exhausted
}

// Status checks every backend concurrently.
func (s *ScanService) Status(ctx context.Context) []dto.BackendStatus {
	statuses := make([]dto.BackendStatus, len(s.backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range s.backends {
		g.Go(func() error {
			statuses[i] = dto.BackendStatus{
				Backend:   b.Backend.Name(),
				Priority:  i + 1,
				Available: s.available(gctx, b.Backend),
			}
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

// Backends lists backend names in priority order.
func (s *ScanService) Backends() []string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Backend.Name()
	}
	return names
}

func (s *ScanService) available(ctx context.Context, b Backend) bool {
	ok, err := callWithTimeout(ctx, s.availabilityTimeout, func(ctx context.Context) (bool, error) {
		return b.Available(ctx), nil
	})
	return err == nil && ok
}

// callWithTimeout runs fn on its own goroutine and stops waiting when the
// timeout expires. fn sees the deadline but is not waited for; a late
// result is dropped.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{zero, fmt.Errorf("%w: backend panicked: %v", dto.ErrEngineCallFailed, r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", dto.ErrEngineCallFailed, ctx.Err())
	}
}

func confidenceAttr(c *float64) any {
	if c == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.1f", *c)
}
