package domain

// Tier identifies the responsibility level currently owning a ticket.
type Tier string

const (
	TierL0 Tier = "L0"
	TierL1 Tier = "L1"
	TierL2 Tier = "L2"
	TierL3 Tier = "L3"
)

// IsEscalated reports whether the tier is an internal escalated tier.
func (t Tier) IsEscalated() bool {
	return t == TierL1 || t == TierL2 || t == TierL3
}

// Partner identifies an external support partner.
type Partner string

const (
	PartnerConnectX Partner = "ConnectX"
	PartnerATT      Partner = "AT&T"
	PartnerAirvet   Partner = "Airvet"
)

// Classification is the resolved ownership of a ticket at one instant.
// Partner, when set, takes precedence over Tier for target resolution and
// path labeling; a ticket is never simultaneously partner-owned and
// internally tiered in this model.
type Classification struct {
	Tier      Tier
	Partner   *Partner
	GroupName string
}

// PathLabel renders the ownership path shown to consumers, e.g. "L0" or
// "L1 -> ConnectX".
func (c Classification) PathLabel() string {
	if c.Partner != nil {
		if c.Tier.IsEscalated() {
			return string(c.Tier) + " -> " + string(*c.Partner)
		}
		return string(*c.Partner)
	}
	return string(c.Tier)
}

// PartnerName returns the partner name or empty when internally owned.
func (c Classification) PartnerName() string {
	if c.Partner == nil {
		return ""
	}
	return string(*c.Partner)
}
