package sla

import (
	"sort"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// ComputeMTTR aggregates resolution times over a comparison population of
// resolved tickets. Samples with non-positive resolution time are excluded;
// an empty filtered sample yields nil, which callers must render as a no-data
// state rather than a zero.
func ComputeMTTR(samples []domain.ResolvedTicketSample, scope string) *domain.MTTRSummary {
	durations := make([]time.Duration, 0, len(samples))
	for _, s := range samples {
		if d := s.ResolutionTime(); d > 0 {
			durations = append(durations, d)
		}
	}
	if len(durations) == 0 {
		return nil
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return &domain.MTTRSummary{
		Mean:                  total / time.Duration(len(durations)),
		Median:                median(durations),
		SampleSize:            len(durations),
		Scope:                 scope,
		ApproximateResolvedAt: true,
	}
}

func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
