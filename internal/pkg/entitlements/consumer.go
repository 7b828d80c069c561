package entitlements

import (
	"context"

	"github.com/soukly/soukly/pkg/apperrors"
)

// UsageRepository performs the atomic check-and-increment updates behind
// quota consumption. Every Consume method must apply "increment only while
// still below cap" as one conditional write against the store and report
// whether a row changed; a cap of Unlimited increments unconditionally.
type UsageRepository interface {
	ConsumeListingSlot(ctx context.Context, userID uint, cap int) (bool, error)
	ReleaseListingSlot(ctx context.Context, userID uint) error
	ConsumeFeaturedSlot(ctx context.Context, userID uint, cap int) (bool, error)
	ReleaseFeaturedSlot(ctx context.Context, userID uint) error
	ConsumeFreeBoost(ctx context.Context, userID uint, cap int) (bool, error)
	ResetBoostsUsed(ctx context.Context, userID uint) error
	ConsumeTeamSeat(ctx context.Context, userID uint, cap int) (bool, error)
	ReleaseTeamSeat(ctx context.Context, userID uint) error
	ConsumePhotoSlot(ctx context.Context, listingID uint, cap int) (bool, error)
	ConsumeModification(ctx context.Context, listingID uint, cap int) (bool, error)
}

// Consumer gates quota-consuming actions. Callers never pair a predicate
// with a separate counter write; they call one Consume method and either
// get nil or a QuotaExceeded error carrying the limit explanation.
type Consumer struct {
	repo UsageRepository
}

// NewConsumer creates a quota consumer over the given repository.
func NewConsumer(repo UsageRepository) *Consumer {
	return &Consumer{repo: repo}
}

func (c *Consumer) consume(tier Tier, kind LimitKind, ok bool, err error) error {
	if err != nil {
		return apperrors.Internal(err)
	}
	if !ok {
		return apperrors.QuotaExceeded(Message(tier, kind))
	}
	return nil
}

// ConsumeListingSlot reserves one active-listing slot for the account.
func (c *Consumer) ConsumeListingSlot(ctx context.Context, tier Tier, userID uint) error {
	p, err := ProfileFor(tier)
	if err != nil {
		return err
	}
	ok, err := c.repo.ConsumeListingSlot(ctx, userID, p.MaxActiveListings)
	return c.consume(tier, LimitAds, ok, err)
}

// ReleaseListingSlot frees a slot when a listing leaves the active state.
func (c *Consumer) ReleaseListingSlot(ctx context.Context, userID uint) error {
	if err := c.repo.ReleaseListingSlot(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// ConsumeFeaturedSlot reserves one featured slot for the account.
func (c *Consumer) ConsumeFeaturedSlot(ctx context.Context, tier Tier, userID uint) error {
	p, err := ProfileFor(tier)
	if err != nil {
		return err
	}
	ok, err := c.repo.ConsumeFeaturedSlot(ctx, userID, p.MaxFeaturedSlots)
	return c.consume(tier, LimitFeatured, ok, err)
}

// ReleaseFeaturedSlot frees a featured slot when the feature period ends.
func (c *Consumer) ReleaseFeaturedSlot(ctx context.Context, userID uint) error {
	if err := c.repo.ReleaseFeaturedSlot(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// ConsumeFreeBoost spends one free boost from the current cycle.
func (c *Consumer) ConsumeFreeBoost(ctx context.Context, tier Tier, userID uint) error {
	p, err := ProfileFor(tier)
	if err != nil {
		return err
	}
	ok, err := c.repo.ConsumeFreeBoost(ctx, userID, p.FreeBoostsPerCycle)
	return c.consume(tier, LimitBoosts, ok, err)
}

// ConsumeTeamSeat claims one team seat. Tiers without team management
// always fail with a quota error.
func (c *Consumer) ConsumeTeamSeat(ctx context.Context, tier Tier, userID uint) error {
	p, err := ProfileFor(tier)
	if err != nil {
		return err
	}
	if !p.CanManageTeam {
		return apperrors.QuotaExceeded(Message(tier, LimitTeam))
	}
	ok, err := c.repo.ConsumeTeamSeat(ctx, userID, p.MaxTeamMembers)
	return c.consume(tier, LimitTeam, ok, err)
}

// ReleaseTeamSeat frees a team seat when a member is removed.
func (c *Consumer) ReleaseTeamSeat(ctx context.Context, userID uint) error {
	if err := c.repo.ReleaseTeamSeat(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// ConsumePhotoSlot claims one photo slot on a listing.
func (c *Consumer) ConsumePhotoSlot(ctx context.Context, tier Tier, listingID uint) error {
	p, err := ProfileFor(tier)
	if err != nil {
		return err
	}
	ok, err := c.repo.ConsumePhotoSlot(ctx, listingID, p.MaxPhotosPerListing)
	return c.consume(tier, LimitPhotos, ok, err)
}

// ConsumeModification spends one free modification on a listing.
func (c *Consumer) ConsumeModification(ctx context.Context, tier Tier, listingID uint) error {
	p, err := ProfileFor(tier)
	if err != nil {
		return err
	}
	ok, err := c.repo.ConsumeModification(ctx, listingID, p.MaxFreeModsPerListing)
	return c.consume(tier, LimitModifications, ok, err)
}
