package entitlements

import (
	"strings"

	"github.com/soukly/soukly/pkg/apperrors"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Unlimited is the sentinel cap value that disables a numeric limit.
const Unlimited = -1

// Profile is the read-only set of limits one tier grants. Exactly one
// profile exists per tier; the catalog below is never mutated at runtime.
type Profile struct {
	MaxActiveListings     int
	MaxPhotosPerListing   int
	MaxFeaturedSlots      int
	FeaturedDurationDays  int
	MaxFreeModsPerListing int
	FreeBoostsPerCycle    int
	BoostUnitPrice        int64
	BoostBundlePrice      int64 // price for a bundle of 5 boosts
	HasVerifiedBadge      bool
	HasDetailedStatistics bool
	CanManageTeam         bool
	MaxTeamMembers        int
}

var profiles = map[Tier]Profile{
	TierFree: {
		MaxActiveListings:     3,
		MaxPhotosPerListing:   3,
		MaxFeaturedSlots:      0,
		FeaturedDurationDays:  0,
		MaxFreeModsPerListing: 0,
		FreeBoostsPerCycle:    0,
		BoostUnitPrice:        500,
		BoostBundlePrice:      2000,
	},
	TierStarter: {
		MaxActiveListings:     10,
		MaxPhotosPerListing:   6,
		MaxFeaturedSlots:      1,
		FeaturedDurationDays:  7,
		MaxFreeModsPerListing: 1,
		FreeBoostsPerCycle:    1,
		BoostUnitPrice:        400,
		BoostBundlePrice:      1600,
	},
	TierPro: {
		MaxActiveListings:     50,
		MaxPhotosPerListing:   10,
		MaxFeaturedSlots:      5,
		FeaturedDurationDays:  14,
		MaxFreeModsPerListing: 5,
		FreeBoostsPerCycle:    5,
		BoostUnitPrice:        300,
		BoostBundlePrice:      1200,
		HasVerifiedBadge:      true,
		HasDetailedStatistics: true,
		CanManageTeam:         true,
		MaxTeamMembers:        3,
	},
	TierEnterprise: {
		MaxActiveListings:     Unlimited,
		MaxPhotosPerListing:   Unlimited,
		MaxFeaturedSlots:      20,
		FeaturedDurationDays:  30,
		MaxFreeModsPerListing: Unlimited,
		FreeBoostsPerCycle:    Unlimited,
		BoostUnitPrice:        0,
		BoostBundlePrice:      0,
		HasVerifiedBadge:      true,
		HasDetailedStatistics: true,
		CanManageTeam:         true,
		MaxTeamMembers:        10,
	},
}

// ParseTier validates a stored tier value. Unknown values are a hard
// error rather than a silent downgrade to the free tier, so corrupted
// account data surfaces instead of quietly losing entitlements.
func ParseTier(raw string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := profiles[t]; !ok {
		return "", apperrors.NotFound("unknown subscription tier: " + raw)
	}
	return t, nil
}

// TierRank orders tiers for upgrade comparisons.
func TierRank(tier Tier) int {
	switch tier {
	case TierEnterprise:
		return 3
	case TierPro:
		return 2
	case TierStarter:
		return 1
	default:
		return 0
	}
}

// ProfileFor returns the limit profile of a tier.
func ProfileFor(tier Tier) (Profile, error) {
	p, ok := profiles[tier]
	if !ok {
		return Profile{}, apperrors.NotFound("unknown subscription tier: " + string(tier))
	}
	return p, nil
}

func withinCap(cap, used int) bool {
	if cap == Unlimited {
		return true
	}
	return used < cap
}

// CanCreateListing reports whether another active listing fits the tier cap.
func CanCreateListing(tier Tier, activeCount int) bool {
	p, err := ProfileFor(tier)
	if err != nil {
		return false
	}
	return withinCap(p.MaxActiveListings, activeCount)
}

// CanUploadPhoto reports whether a listing may carry one more photo.
func CanUploadPhoto(tier Tier, currentPhotoCount int) bool {
	p, err := ProfileFor(tier)
	if err != nil {
		return false
	}
	return withinCap(p.MaxPhotosPerListing, currentPhotoCount)
}

// CanModifyListing reports whether a listing has free modifications left.
func CanModifyListing(tier Tier, modificationsUsed int) bool {
	p, err := ProfileFor(tier)
	if err != nil {
		return false
	}
	return withinCap(p.MaxFreeModsPerListing, modificationsUsed)
}

// CanFeatureListing reports whether a featured slot is available.
func CanFeatureListing(tier Tier, featuredUsed int) bool {
	p, err := ProfileFor(tier)
	if err != nil {
		return false
	}
	return withinCap(p.MaxFeaturedSlots, featuredUsed)
}

// CanBoostForFree reports whether a free boost remains in the current cycle.
func CanBoostForFree(tier Tier, boostsUsed int) bool {
	p, err := ProfileFor(tier)
	if err != nil {
		return false
	}
	return withinCap(p.FreeBoostsPerCycle, boostsUsed)
}

// CanAddTeamMember reports whether the tier allows one more team member.
func CanAddTeamMember(tier Tier, currentMembers int) bool {
	p, err := ProfileFor(tier)
	if err != nil {
		return false
	}
	if !p.CanManageTeam {
		return false
	}
	return withinCap(p.MaxTeamMembers, currentMembers)
}

// FeaturedDurationDays returns how long a featured slot lasts for the tier.
func FeaturedDurationDays(tier Tier) int {
	p, err := ProfileFor(tier)
	if err != nil {
		return 0
	}
	return p.FeaturedDurationDays
}

// BoostPrice computes the price of count paid boosts. Five or more boosts
// are always charged at the bundle price; tiers with a zero unit price
// boost for free at any count.
func BoostPrice(tier Tier, count int) int64 {
	p, err := ProfileFor(tier)
	if err != nil {
		return 0
	}
	if p.BoostUnitPrice == 0 || count <= 0 {
		return 0
	}
	if count >= 5 {
		return p.BoostBundlePrice
	}
	return p.BoostUnitPrice * int64(count)
}
