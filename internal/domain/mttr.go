package domain

import "time"

// ResolvedTicketSample is one resolved ticket in an MTTR comparison set. The
// resolution instant is approximated by the ticket's last update; see
// MTTRSummary.ApproximateResolvedAt.
type ResolvedTicketSample struct {
	TicketID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolutionTime returns the proxy resolution duration for the sample.
func (s ResolvedTicketSample) ResolutionTime() time.Duration {
	return s.UpdatedAt.Sub(s.CreatedAt)
}

// MTTRSummary aggregates resolution times over a comparison population.
type MTTRSummary struct {
	Mean       time.Duration
	Median     time.Duration
	SampleSize int
	Scope      string
	// ApproximateResolvedAt flags that resolution instants were proxied by
	// each sample's last-update timestamp rather than an explicit
	// status-change audit lookup.
	ApproximateResolvedAt bool
}
