package resolve

import (
	"strings"

	"whorep/internal/civic"
	"whorep/internal/metrics"
	"whorep/internal/roster"
)

// Tier names the rule that decided a resolution.
type Tier string

const (
	TierExact        Tier = "exact"
	TierSurnameParty Tier = "surname_party"
	TierSurnameFuzzy Tier = "surname_fuzzy"
	TierNone         Tier = "none"
	TierSkipped      Tier = "skipped"
	TierKept         Tier = "kept"
)

// SimilarityThreshold is the minimum score accepted by the fuzzy tier.
const SimilarityThreshold = 70

// headOfStateMarker excludes the president (and vice president) from
// matching against the congressional roster.
const headOfStateMarker = "President"

// Result reports how an officeholder was resolved.
type Result struct {
	Tier Tier
	ID   string
}

// Matched reports whether a tier attached a roster identity.
func (r Result) Matched() bool {
	switch r.Tier {
	case TierExact, TierSurnameParty, TierSurnameFuzzy:
		return true
	default:
		return false
	}
}

// Resolver links Federal officeholders to roster identities.
type Resolver struct {
	roster  roster.Roster
	metrics *metrics.Metrics
}

func New(r roster.Roster, m *metrics.Metrics) *Resolver {
	return &Resolver{roster: r, metrics: m}
}

// Eligible reports whether o is a candidate for matching.
func Eligible(o civic.Officeholder) bool {
	return o.Level == civic.Federal && !strings.Contains(o.Role, headOfStateMarker)
}

// Resolve returns o with FinanceID set when a tier matches. Tiers are tried
// in order over the whole roster and the first match wins. Ineligible or
// already resolved officeholders are returned unchanged.
func (r *Resolver) Resolve(o civic.Officeholder) (civic.Officeholder, Result) {
	result := r.match(o)
	r.metrics.Resolution(string(result.Tier))
	if result.Matched() {
		o.FinanceID = result.ID
	}
	return o, result
}

func (r *Resolver) match(o civic.Officeholder) Result {
	if !Eligible(o) {
		return Result{Tier: TierSkipped}
	}
	if o.Resolved() {
		return Result{Tier: TierKept, ID: o.FinanceID}
	}

	name := strings.TrimSpace(o.Name)
	for _, id := range r.roster {
		if name == id.FirstLast() {
			return Result{Tier: TierExact, ID: id.ID}
		}
	}

	surname := lastToken(name)
	if surname == "" {
		return Result{Tier: TierNone}
	}
	if o.Party.Code != "" {
		for _, id := range r.roster {
			if surname == id.Surname() && strings.EqualFold(o.Party.Code, id.Party) {
				return Result{Tier: TierSurnameParty, ID: id.ID}
			}
		}
	}
	for _, id := range r.roster {
		if surname == id.Surname() && Similarity(name, id.FirstLast()) >= SimilarityThreshold {
			return Result{Tier: TierSurnameFuzzy, ID: id.ID}
		}
	}
	return Result{Tier: TierNone}
}

// ResolveAll resolves every officeholder in place and returns the results
// in the same order.
func (r *Resolver) ResolveAll(list []civic.Officeholder) []Result {
	results := make([]Result, len(list))
	for i := range list {
		list[i], results[i] = r.Resolve(list[i])
	}
	return results
}

func lastToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
