package entitlements

import "fmt"

// LimitKind identifies which tier limit an action ran into. Keeping this
// a closed enum means an unknown kind cannot appear at runtime the way a
// free-form string key could.
type LimitKind int

const (
	LimitAds LimitKind = iota
	LimitPhotos
	LimitModifications
	LimitFeatured
	LimitBoosts
	LimitTeam
	LimitQuantity
)

func (k LimitKind) String() string {
	switch k {
	case LimitAds:
		return "ads"
	case LimitPhotos:
		return "photos"
	case LimitModifications:
		return "modifications"
	case LimitFeatured:
		return "featured"
	case LimitBoosts:
		return "boosts"
	case LimitTeam:
		return "team"
	case LimitQuantity:
		return "quantity"
	default:
		return "unknown"
	}
}

const genericLimitMessage = "You have reached a limit of your current pack. Upgrade to continue."

// Message renders the human-readable explanation for a limit that was hit.
// An unrecognized tier or kind falls back to a generic message; that is a
// deliberate policy, not an error.
func Message(tier Tier, kind LimitKind) string {
	p, err := ProfileFor(tier)
	if err != nil {
		return genericLimitMessage
	}

	switch kind {
	case LimitAds:
		return fmt.Sprintf("Your pack allows at most %s active listings. Archive one or upgrade your pack.", capWord(p.MaxActiveListings))
	case LimitPhotos:
		return fmt.Sprintf("Your pack allows at most %s photos per listing.", capWord(p.MaxPhotosPerListing))
	case LimitModifications:
		if p.MaxFreeModsPerListing == 0 {
			return "Your pack does not include free listing modifications."
		}
		return fmt.Sprintf("You have used all %s free modifications for this listing.", capWord(p.MaxFreeModsPerListing))
	case LimitFeatured:
		if p.MaxFeaturedSlots == 0 {
			return "Your pack does not include featured slots."
		}
		return fmt.Sprintf("All %s featured slots of your pack are in use.", capWord(p.MaxFeaturedSlots))
	case LimitBoosts:
		if p.FreeBoostsPerCycle == 0 {
			return "Your pack does not include free boosts."
		}
		return fmt.Sprintf("You have used all %s free boosts for this period.", capWord(p.FreeBoostsPerCycle))
	case LimitTeam:
		if !p.CanManageTeam {
			return "Your pack does not include team management."
		}
		return fmt.Sprintf("Your pack allows at most %s team members.", capWord(p.MaxTeamMembers))
	case LimitQuantity:
		return "The requested quantity exceeds what your pack allows."
	default:
		return genericLimitMessage
	}
}

func capWord(cap int) string {
	if cap == Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", cap)
}
