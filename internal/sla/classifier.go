package sla

import (
	"regexp"
	"strings"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TierRule maps a group-name matcher to a tier or partner. Rules are
// evaluated in order; the first match wins.
type TierRule struct {
	Keywords []string
	Pattern  *regexp.Regexp
	Tier     domain.Tier
	Partner  *domain.Partner
}

// Matches reports whether the rule applies to the given group name. Keyword
// matching is case-insensitive substring search.
func (r TierRule) Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	if r.Pattern != nil && r.Pattern.MatchString(lower) {
		return true
	}
	return false
}

// KeywordConfig carries operator-supplied keyword overrides. Operator rules
// are checked before the built-in fallback patterns.
type KeywordConfig struct {
	PartnerKeywords   map[domain.Partner][]string
	EscalatedKeywords map[domain.Tier][]string
}

// Classifier resolves group names and partner-selector field values to a
// canonical tier. It is pure: identical inputs always classify identically.
type Classifier struct {
	rules []TierRule
}

var builtinRules = []TierRule{
	{Pattern: regexp.MustCompile(`connect[ _-]?x`), Tier: domain.TierL1, Partner: partnerPtr(domain.PartnerConnectX)},
	{Pattern: regexp.MustCompile(`at&t|\batt\b`), Tier: domain.TierL1, Partner: partnerPtr(domain.PartnerATT)},
	{Pattern: regexp.MustCompile(`airvet`), Tier: domain.TierL1, Partner: partnerPtr(domain.PartnerAirvet)},
	{Pattern: regexp.MustCompile(`\bl3\b|tier[ _-]?3`), Tier: domain.TierL3},
	{Pattern: regexp.MustCompile(`\bl2\b|tier[ _-]?2`), Tier: domain.TierL2},
	{Pattern: regexp.MustCompile(`\bl1\b|tier[ _-]?1|escalat|engineering`), Tier: domain.TierL1},
}

// NewClassifier builds the ordered rule list: operator partner keywords, then
// operator escalated-tier keywords, then the built-in fallbacks. Anything
// unmatched falls through to L0.
func NewClassifier(cfg KeywordConfig) *Classifier {
	rules := make([]TierRule, 0, len(cfg.PartnerKeywords)+len(cfg.EscalatedKeywords)+len(builtinRules))
	for _, partner := range []domain.Partner{domain.PartnerConnectX, domain.PartnerATT, domain.PartnerAirvet} {
		if kws := cfg.PartnerKeywords[partner]; len(kws) > 0 {
			rules = append(rules, TierRule{Keywords: kws, Tier: domain.TierL1, Partner: partnerPtr(partner)})
		}
	}
	for _, tier := range []domain.Tier{domain.TierL3, domain.TierL2, domain.TierL1} {
		if kws := cfg.EscalatedKeywords[tier]; len(kws) > 0 {
			rules = append(rules, TierRule{Keywords: kws, Tier: tier})
		}
	}
	rules = append(rules, builtinRules...)
	return &Classifier{rules: rules}
}

// Classify resolves the current ownership of a ticket from its assigned group
// name and optional partner-selector field value. Partner detection from the
// selector field takes precedence over the group name.
func (c *Classifier) Classify(groupName, partnerField string) domain.Classification {
	if partner := c.matchPartner(partnerField); partner != nil {
		tier := c.ClassifyGroup(groupName).Tier
		if !tier.IsEscalated() {
			tier = domain.TierL1
		}
		return domain.Classification{Tier: tier, Partner: partner, GroupName: groupName}
	}
	cls := c.ClassifyGroup(groupName)
	cls.GroupName = groupName
	return cls
}

// ClassifyGroup resolves a bare group name. Empty input means "not yet
// assigned" and classifies as L0.
func (c *Classifier) ClassifyGroup(groupName string) domain.Classification {
	name := strings.TrimSpace(groupName)
	if name == "" {
		return domain.Classification{Tier: domain.TierL0}
	}
	for _, rule := range c.rules {
		if rule.Matches(name) {
			return domain.Classification{Tier: rule.Tier, Partner: rule.Partner, GroupName: groupName}
		}
	}
	return domain.Classification{Tier: domain.TierL0, GroupName: groupName}
}

func (c *Classifier) matchPartner(value string) *domain.Partner {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, rule := range c.rules {
		if rule.Partner != nil && rule.Matches(value) {
			return rule.Partner
		}
	}
	return nil
}

func partnerPtr(p domain.Partner) *domain.Partner {
	return &p
}
