package tiers

import "github.com/bloomretail/bloom-backend/pkg/enums"

// threshold is the minimum lifetime points required to hold a tier.
type threshold struct {
	tier enums.Tier
	min  int
}

// Ordered descending so the first match wins.
var thresholds = []threshold{
	{enums.TierDiamond, 10000},
	{enums.TierPlatinum, 5000},
	{enums.TierGold, 2000},
	{enums.TierSilver, 500},
	{enums.TierBronze, 0},
}

// TierOf classifies lifetime points into a tier. Tiers never regress:
// callers pass lifetime points, not the spendable balance, so redemptions
// cannot lower the result.
func TierOf(lifetimePoints int) enums.Tier {
	for _, t := range thresholds {
		if lifetimePoints >= t.min {
			return t.tier
		}
	}
	return enums.TierBronze
}

// MinPointsFor returns the lifetime points floor for the given tier.
func MinPointsFor(tier enums.Tier) (int, bool) {
	for _, t := range thresholds {
		if t.tier == tier {
			return t.min, true
		}
	}
	return 0, false
}

// NextTier returns the tier above the current one and the points still
// needed to reach it. The second return is false at the top tier.
func NextTier(lifetimePoints int) (enums.Tier, int, bool) {
	current := TierOf(lifetimePoints)
	for i := len(thresholds) - 1; i >= 0; i-- {
		if thresholds[i].tier == current {
			if i == 0 {
				return "", 0, false
			}
			next := thresholds[i-1]
			return next.tier, next.min - lifetimePoints, true
		}
	}
	return "", 0, false
}
