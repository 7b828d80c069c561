package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/internal/pkg/notifications"
	"github.com/soukly/soukly/pkg/apperrors"
)

// Repository provides the atomic storage operations the state machine
// runs on. Every status flip is a single conditional write ("advance only
// if status still equals X"); a flip that reports false lost a race and
// must fail the whole transition.
type Repository interface {
	Create(ctx context.Context, r *models.Reservation) error
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	// UpdateStatus flips the reservation from one status to another and
	// applies the given column stamps in the same conditional write.
	UpdateStatus(ctx context.Context, id uint, from, to string, stamps map[string]any) (bool, error)
	// AcceptCascade flips the reservation from pending to accepted, the
	// listing from active to reserved, and every other pending
	// reservation on the same listing to rejected, all inside one DB
	// transaction. The listing flip is conditional; when it does not
	// apply the whole cascade rolls back and false is reported, so one
	// listing can never hold two accepted reservations. The rejected
	// siblings are returned so their buyers can be notified.
	AcceptCascade(ctx context.Context, id, listingID uint) (bool, []models.Reservation, error)
	// PayTransition flips the reservation from delivery confirmed to
	// paid and runs the given debit inside the same DB transaction, so
	// the wallet movement and the status flip commit or roll back
	// together. A nil debit records an out-of-band payment.
	PayTransition(ctx context.Context, id uint, stamps map[string]any, debit func(tx *gorm.DB) error) (bool, error)
	// HasBlockingReservation reports whether any reservation on the
	// listing currently occupies it (accepted or further along).
	HasBlockingReservation(ctx context.Context, listingID uint) (bool, error)
	ListByListing(ctx context.Context, listingID uint) ([]models.Reservation, error)
	ListForBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]models.Reservation, error)
	ListForSeller(ctx context.Context, sellerID uint, limit, offset int) ([]models.Reservation, error)
}

// ListingDirectory answers questions about listings and applies the
// listing-side status effects of reservation transitions.
type ListingDirectory interface {
	IsActive(ctx context.Context, listingID uint) (bool, error)
	IsSold(ctx context.Context, listingID uint) (bool, error)
	OwnerOf(ctx context.Context, listingID uint) (uint, error)
	PriceOf(ctx context.Context, listingID uint) (int64, error)
	MarkAvailable(ctx context.Context, listingID uint) error
	MarkSold(ctx context.Context, listingID uint) error
}

// Ledger is the wallet operation the pay transition needs. The debit
// runs on the transaction handle the repository passes in, never on a
// separate connection.
type Ledger interface {
	DebitPaymentTx(ctx context.Context, tx *gorm.DB, userID uint, amount int64, reference string) (*models.WalletTransaction, error)
}

// Service owns the reservation lifecycle. Transitions validate current
// status and caller role before any side effect and are all-or-nothing;
// an invalid combination fails with InvalidTransition and leaves the
// reservation untouched.
type Service struct {
	repo     Repository
	listings ListingDirectory
	ledger   Ledger
	emitter  notifications.Emitter
}

// NewService wires the state machine to its collaborators.
func NewService(repo Repository, listings ListingDirectory, ledger Ledger, emitter notifications.Emitter) *Service {
	if emitter == nil {
		emitter = notifications.NoopEmitter{}
	}
	return &Service{repo: repo, listings: listings, ledger: ledger, emitter: emitter}
}

// Get returns a reservation if the caller is one of its parties.
func (s *Service) Get(ctx context.Context, actorID, reservationID uint) (*models.Reservation, error) {
	return s.load(ctx, actorID, reservationID)
}

// ListForBuyer returns the reservations the account created.
func (s *Service) ListForBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]models.Reservation, error) {
	res, err := s.repo.ListForBuyer(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return res, nil
}

// ListForSeller returns the reservations on the account's listings.
func (s *Service) ListForSeller(ctx context.Context, sellerID uint, limit, offset int) ([]models.Reservation, error) {
	res, err := s.repo.ListForSeller(ctx, sellerID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return res, nil
}

// Create opens a pending reservation from a buyer on a listing. Several
// buyers may hold pending reservations on the same listing at once; a
// listing occupied past the accepted stage rejects new ones.
func (s *Service) Create(ctx context.Context, buyerID, listingID uint, message string) (*models.Reservation, error) {
	active, err := s.listings.IsActive(ctx, listingID)
	if err != nil {
		return nil, s.directoryErr(err)
	}
	sold, err := s.listings.IsSold(ctx, listingID)
	if err != nil {
		return nil, s.directoryErr(err)
	}
	if !active || sold {
		return nil, apperrors.InvalidTransition("listing is not available for reservation")
	}

	sellerID, err := s.listings.OwnerOf(ctx, listingID)
	if err != nil {
		return nil, s.directoryErr(err)
	}
	if sellerID == buyerID {
		return nil, apperrors.Validation("you cannot reserve your own listing")
	}

	blocked, err := s.repo.HasBlockingReservation(ctx, listingID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if blocked {
		return nil, apperrors.InvalidTransition("listing already has an accepted reservation")
	}

	r := &models.Reservation{
		ListingID:    listingID,
		BuyerID:      buyerID,
		SellerID:     sellerID,
		Status:       models.ReservationStatusPending,
		BuyerMessage: message,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationReservationCreated,
		UserID:  sellerID,
		ActorID: buyerID,
		RefID:   r.ID,
		Message: "A buyer wants to reserve your listing.",
	})
	return r, nil
}

// Accept lets the seller take one pending reservation. All other pending
// reservations on the listing are rejected in the same atomic operation,
// so the listing can never end up double-booked.
func (s *Service) Accept(ctx context.Context, sellerID, reservationID uint) (*models.Reservation, error) {
	r, err := s.load(ctx, sellerID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSeller(r, sellerID, "accept"); err != nil {
		return nil, err
	}

	ok, rejected, err := s.repo.AcceptCascade(ctx, r.ID, r.ListingID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		// The cascade refuses for two reasons: the reservation already
		// left pending, or the listing is no longer free to reserve.
		if cur, reloadErr := s.repo.GetByID(ctx, r.ID); reloadErr == nil {
			if cur.Status == models.ReservationStatusPending {
				return nil, apperrors.InvalidTransition("listing is no longer available for acceptance")
			}
			return nil, invalidFrom(cur.Status, "accept")
		}
		return nil, invalidFrom(r.Status, "accept")
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationReservationAccepted,
		UserID:  r.BuyerID,
		ActorID: sellerID,
		RefID:   r.ID,
		Message: "The seller accepted your reservation.",
	})
	for i := range rejected {
		s.emit(ctx, notifications.Event{
			Type:    models.NotificationReservationRejected,
			UserID:  rejected[i].BuyerID,
			ActorID: sellerID,
			RefID:   rejected[i].ID,
			Message: "The seller accepted another reservation on this listing.",
		})
	}

	return s.reload(ctx, r.ID)
}

// Reject lets the seller decline a pending reservation.
func (s *Service) Reject(ctx context.Context, sellerID, reservationID uint) (*models.Reservation, error) {
	r, err := s.load(ctx, sellerID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSeller(r, sellerID, "reject"); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatus(ctx, r.ID, models.ReservationStatusPending, models.ReservationStatusRejected,
		map[string]any{"closed_at": &now})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, invalidFrom(r.Status, "reject")
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationReservationRejected,
		UserID:  r.BuyerID,
		ActorID: sellerID,
		RefID:   r.ID,
		Message: "The seller declined your reservation.",
	})
	return s.reload(ctx, r.ID)
}

// Cancel lets the buyer withdraw before payment, from either the pending
// or the accepted stage.
func (s *Service) Cancel(ctx context.Context, buyerID, reservationID uint) (*models.Reservation, error) {
	r, err := s.load(ctx, buyerID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBuyer(r, buyerID, "cancel"); err != nil {
		return nil, err
	}

	now := time.Now()
	wasAccepted := r.Status == models.ReservationStatusAccepted
	from := r.Status
	if from != models.ReservationStatusPending && from != models.ReservationStatusAccepted {
		return nil, invalidFrom(from, "cancel")
	}
	ok, err := s.repo.UpdateStatus(ctx, r.ID, from, models.ReservationStatusCancelled,
		map[string]any{"closed_at": &now})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, invalidFrom(r.Status, "cancel")
	}

	if wasAccepted {
		if err := s.listings.MarkAvailable(ctx, r.ListingID); err != nil {
			log.Errorf("reservation %d: failed to mark listing %d available: %v", r.ID, r.ListingID, err)
		}
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationReservationCancelled,
		UserID:  r.SellerID,
		ActorID: buyerID,
		RefID:   r.ID,
		Message: "The buyer withdrew the reservation.",
	})
	return s.reload(ctx, r.ID)
}

// Deliver lets the seller mark the item as handed over.
func (s *Service) Deliver(ctx context.Context, sellerID, reservationID uint) (*models.Reservation, error) {
	r, err := s.load(ctx, sellerID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSeller(r, sellerID, "deliver"); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatus(ctx, r.ID, models.ReservationStatusAccepted, models.ReservationStatusDelivered,
		map[string]any{"delivered_at": &now})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, invalidFrom(r.Status, "deliver")
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationDeliveryMarked,
		UserID:  r.BuyerID,
		ActorID: sellerID,
		RefID:   r.ID,
		Message: "The seller marked the item as delivered.",
	})
	return s.reload(ctx, r.ID)
}

// ConfirmDelivery lets the buyer acknowledge receipt.
func (s *Service) ConfirmDelivery(ctx context.Context, buyerID, reservationID uint) (*models.Reservation, error) {
	r, err := s.load(ctx, buyerID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBuyer(r, buyerID, "confirm delivery"); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatus(ctx, r.ID, models.ReservationStatusDelivered, models.ReservationStatusDeliveryConfirmed,
		map[string]any{"confirmed_at": &now})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, invalidFrom(r.Status, "confirm delivery")
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationDeliveryConfirmed,
		UserID:  r.SellerID,
		ActorID: buyerID,
		RefID:   r.ID,
		Message: "The buyer confirmed delivery.",
	})
	return s.reload(ctx, r.ID)
}

// Pay records payment for a delivered item. Wallet payments debit the
// buyer's wallet inside the same DB transaction as the status flip, so
// neither can apply without the other; out-of-band methods just record
// the method and a reference code. Insufficient funds fail the whole
// transition with the reservation unchanged.
func (s *Service) Pay(ctx context.Context, buyerID, reservationID uint, method, reference string) (*models.Reservation, error) {
	r, err := s.load(ctx, buyerID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBuyer(r, buyerID, "pay"); err != nil {
		return nil, err
	}
	if !models.IsValidPaymentMethod(method) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown payment method %q", method))
	}
	if r.Status != models.ReservationStatusDeliveryConfirmed {
		return nil, invalidFrom(r.Status, "pay")
	}

	if reference == "" {
		reference = uuid.NewString()
	}

	var debit func(tx *gorm.DB) error
	if method == models.PaymentMethodWallet {
		amount, priceErr := s.listings.PriceOf(ctx, r.ListingID)
		if priceErr != nil {
			return nil, s.directoryErr(priceErr)
		}
		debit = func(tx *gorm.DB) error {
			_, debitErr := s.ledger.DebitPaymentTx(ctx, tx, buyerID, amount, reference)
			return debitErr
		}
	}

	now := time.Now()
	ok, err := s.repo.PayTransition(ctx, r.ID, map[string]any{
		"payment_method": method,
		"payment_ref":    reference,
		"paid_at":        &now,
	}, debit)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, invalidFrom(r.Status, "pay")
	}

	s.emit(ctx, notifications.Event{
		Type:    models.NotificationPaymentRecorded,
		UserID:  r.SellerID,
		ActorID: buyerID,
		RefID:   r.ID,
		Message: "Payment has been recorded for your listing.",
	})
	return s.reload(ctx, r.ID)
}

// Complete archives a paid reservation and marks the listing sold. The
// seller closes the deal; admins may close on their behalf.
func (s *Service) Complete(ctx context.Context, actorID, reservationID uint, isAdmin bool) (*models.Reservation, error) {
	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, s.notFoundOr(err)
	}
	if !isAdmin {
		if actorID != r.SellerID && actorID != r.BuyerID {
			return nil, apperrors.Unauthorized("you are not a party to this reservation")
		}
		if actorID != r.SellerID {
			return nil, invalidRole("complete", "seller")
		}
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatus(ctx, r.ID, models.ReservationStatusPaid, models.ReservationStatusCompleted,
		map[string]any{"closed_at": &now})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, invalidFrom(r.Status, "complete")
	}

	if err := s.listings.MarkSold(ctx, r.ListingID); err != nil {
		log.Errorf("reservation %d: failed to mark listing %d sold: %v", r.ID, r.ListingID, err)
	}

	return s.reload(ctx, r.ID)
}

func (s *Service) load(ctx context.Context, actorID, reservationID uint) (*models.Reservation, error) {
	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, s.notFoundOr(err)
	}
	if actorID != r.BuyerID && actorID != r.SellerID {
		return nil, apperrors.Unauthorized("you are not a party to this reservation")
	}
	return r, nil
}

func (s *Service) reload(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return r, nil
}

func (s *Service) requireSeller(r *models.Reservation, actorID uint, action string) error {
	if actorID != r.SellerID {
		return invalidRole(action, "seller")
	}
	return nil
}

func (s *Service) requireBuyer(r *models.Reservation, actorID uint, action string) error {
	if actorID != r.BuyerID {
		return invalidRole(action, "buyer")
	}
	return nil
}

func (s *Service) notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("reservation not found")
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(err)
}

func (s *Service) directoryErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("listing not found")
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(err)
}

func (s *Service) emit(ctx context.Context, event notifications.Event) {
	s.emitter.Emit(ctx, event)
}

func invalidFrom(status, action string) error {
	return apperrors.InvalidTransition(fmt.Sprintf("cannot %s a reservation in status %q", action, status))
}

func invalidRole(action, role string) error {
	return apperrors.InvalidTransition(fmt.Sprintf("only the %s may %s this reservation", role, action))
}
