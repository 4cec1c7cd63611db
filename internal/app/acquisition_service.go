package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/probeacc/internal/core/burst"
	"github.com/example/probeacc/internal/core/effects"
	"github.com/example/probeacc/internal/core/gcodelog"
	"github.com/example/probeacc/internal/core/probetest"
	"github.com/example/probeacc/internal/ports/secondary"
)

// DefaultLookback is the number of most recent log entries read back after a
// burst. A burst whose responses exceed it loses its oldest lines.
const DefaultLookback = 1000

// AcquisitionService issues probe bursts and correlates them with the
// printer's gcode response log.
type AcquisitionService struct {
	transport secondary.PrinterTransport
	lookback  int
	policy    burst.ParsePolicy
	logger    *zap.Logger
}

// NewAcquisitionService creates a new AcquisitionService with injected dependencies.
// A non-positive lookback falls back to DefaultLookback.
func NewAcquisitionService(
	transport secondary.PrinterTransport,
	lookback int,
	policy burst.ParsePolicy,
	logger *zap.Logger,
) *AcquisitionService {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &AcquisitionService{
		transport: transport,
		lookback:  lookback,
		policy:    policy,
		logger:    logger,
	}
}

// IssueAndCorrelate records the newest log timestamp, issues command, then
// returns the log entries emitted after that baseline in emission order.
//
// A gcode-level failure of command is not fatal here: the caller still gets
// the correlated entries, which carry the printer's error lines.
func (s *AcquisitionService) IssueAndCorrelate(ctx context.Context, command string) ([]gcodelog.Entry, error) {
	latest, err := s.readLog(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read log baseline: %w", err)
	}
	baseline := gcodelog.Baseline(latest)

	if err := s.transport.SendGcode(ctx, command); err != nil {
		var gcodeErr *secondary.GcodeError
		if !errors.As(err, &gcodeErr) {
			return nil, fmt.Errorf("failed to issue %q: %w", command, err)
		}
		s.logger.Warn("command reported an error", zap.String("command", command), zap.String("error", gcodeErr.Message))
	}

	entries, err := s.readLog(ctx, s.lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to read log responses: %w", err)
	}
	correlated := gcodelog.After(entries, baseline)

	s.logger.Debug("correlated responses",
		zap.String("command", command),
		zap.Float64("baseline", baseline),
		zap.Int("read", len(entries)),
		zap.Int("correlated", len(correlated)))
	if len(entries) == s.lookback && len(correlated) == len(entries) {
		s.logger.Warn("response volume reached the lookback window; oldest lines may be missing",
			zap.String("command", command), zap.Int("lookback", s.lookback))
	}

	return correlated, nil
}

// Acquire runs one PROBE_ACCURACY burst and parses its samples.
// A *burst.NoSamplesError is returned together with the (empty) burst.
func (s *AcquisitionService) Acquire(ctx context.Context, eff effects.AcquireEffect) (*burst.Burst, error) {
	if err := probetest.CanAcquire(probetest.AcquireContext{Test: eff.Test, Samples: eff.Samples}).Error(); err != nil {
		return nil, err
	}

	entries, err := s.IssueAndCorrelate(ctx, ProbeAccuracyGcode(eff.Samples))
	if err != nil {
		return nil, err
	}

	b, err := burst.Parse(gcodelog.Messages(entries), eff.Test, s.policy)
	if err != nil {
		return b, err
	}
	b.Samples = b.Samples.WithMeasurement(eff.Measurement)

	s.logger.Debug("burst acquired",
		zap.String("label", eff.Test),
		zap.Int("raw", b.RawCount),
		zap.Int("samples", len(b.Samples)),
		zap.Int("faults", len(b.Faults)))
	return b, nil
}

// ProbeAccuracyGcode is the command that triggers a burst of n samples.
func ProbeAccuracyGcode(samples int) string {
	return fmt.Sprintf("PROBE_ACCURACY SAMPLES=%d", samples)
}

func (s *AcquisitionService) readLog(ctx context.Context, count int) ([]gcodelog.Entry, error) {
	records, err := s.transport.GcodeStore(ctx, count)
	if err != nil {
		return nil, err
	}
	entries := make([]gcodelog.Entry, len(records))
	for i, r := range records {
		entries[i] = gcodelog.Entry{Time: r.Time, Message: r.Message, Type: r.Type}
	}
	return gcodelog.Chronological(entries), nil
}
