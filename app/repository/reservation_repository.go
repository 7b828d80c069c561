package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
)

// ReservationRepository implements the reservation state machine's storage
// contract. Every status flip is one conditional UPDATE guarded by the
// expected current status, so concurrent transitions on the same row can
// never both apply.
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a reservation repository over the given DB.
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a new reservation row.
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID retrieves a reservation by its ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateStatus flips the reservation from one status to another, applying
// the stamps in the same write. It reports false when the row was no
// longer in the expected status by the time of the write.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uint, from, to string, stamps map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for col, val := range stamps {
		updates[col] = val
	}
	res := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

var errLostAcceptRace = errors.New("reservation: no longer pending")

// AcceptCascade accepts one pending reservation, flips the listing from
// active to reserved, and rejects every other pending reservation on the
// same listing, all inside a single DB transaction. The listing flip is
// conditional, so two accepts on the same listing can never both commit
// even when a stale pending slipped in past the create-time check.
// Either the whole cascade applies or none of it does.
func (r *ReservationRepository) AcceptCascade(ctx context.Context, id, listingID uint) (bool, []models.Reservation, error) {
	var rejected []models.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, models.ReservationStatusPending).
			Updates(map[string]any{
				"status":      models.ReservationStatusAccepted,
				"accepted_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostAcceptRace
		}

		res = tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
			Update("status", models.ListingStatusReserved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostAcceptRace
		}

		if err := tx.Where("listing_id = ? AND id <> ? AND status = ?",
			listingID, id, models.ReservationStatusPending).
			Find(&rejected).Error; err != nil {
			return err
		}
		if len(rejected) == 0 {
			return nil
		}

		res = tx.Model(&models.Reservation{}).
			Where("listing_id = ? AND id <> ? AND status = ?",
				listingID, id, models.ReservationStatusPending).
			Updates(map[string]any{
				"status":    models.ReservationStatusRejected,
				"closed_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		for i := range rejected {
			rejected[i].Status = models.ReservationStatusRejected
			rejected[i].ClosedAt = &now
		}
		return nil
	})
	if errors.Is(err, errLostAcceptRace) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, rejected, nil
}

var errLostPayRace = errors.New("reservation: no longer delivery confirmed")

// PayTransition flips the reservation from delivery confirmed to paid and
// runs the given debit on the same transaction handle. A debit failure
// (insufficient funds included) rolls the status flip back, so money and
// state can never diverge.
func (r *ReservationRepository) PayTransition(ctx context.Context, id uint, stamps map[string]any, debit func(tx *gorm.DB) error) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": models.ReservationStatusPaid}
		for col, val := range stamps {
			updates[col] = val
		}
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, models.ReservationStatusDeliveryConfirmed).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostPayRace
		}
		if debit != nil {
			return debit(tx)
		}
		return nil
	})
	if errors.Is(err, errLostPayRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasBlockingReservation reports whether any reservation currently
// occupies the listing (accepted or further along, but not yet closed).
func (r *ReservationRepository) HasBlockingReservation(ctx context.Context, listingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("listing_id = ? AND status IN ?", listingID, []string{
			models.ReservationStatusAccepted,
			models.ReservationStatusDelivered,
			models.ReservationStatusDeliveryConfirmed,
			models.ReservationStatusPaid,
		}).
		Count(&count).Error
	return count > 0, err
}

// ListByListing retrieves all reservations ever opened on a listing.
func (r *ReservationRepository) ListByListing(ctx context.Context, listingID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&reservations).Error
	return reservations, err
}

// ListForBuyer retrieves the reservations an account opened as buyer.
func (r *ReservationRepository) ListForBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reservations).Error
	return reservations, err
}

// ListForSeller retrieves the reservations on an account's listings.
func (r *ReservationRepository) ListForSeller(ctx context.Context, sellerID uint, limit, offset int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reservations).Error
	return reservations, err
}
