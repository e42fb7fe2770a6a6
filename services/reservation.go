package services

import (
	"fmt"
	"sync"
	"time"

	"luxurystay-server/models"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transitions is the single source of truth for the reservation state
// machine. Anything not listed here is rejected.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationPending:   {models.ReservationConfirmed, models.ReservationCancelled, models.ReservationExpired},
	models.ReservationConfirmed: {models.ReservationCheckedIn, models.ReservationCancelled},
	models.ReservationCheckedIn: {models.ReservationCheckedOut},
}

// CanTransition reports whether from -> to is a defined lifecycle move.
func CanTransition(from, to models.ReservationStatus) bool {
	return slices.Contains(transitions[from], to)
}

// ReservationService owns the reservation lifecycle. All status changes and
// their room side effects go through it; nothing else writes these fields.
type ReservationService struct {
	mu        sync.Mutex
	roomLocks map[uint]*sync.Mutex
}

func NewReservationService() *ReservationService {
	return &ReservationService{roomLocks: make(map[uint]*sync.Mutex)}
}

// roomLock returns the lock serializing bookings for a single room. Holding
// it across the create transaction closes the check-then-act race between
// the availability check and the insert.
func (s *ReservationService) roomLock(roomID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.roomLocks[roomID] = l
	}
	return l
}

// lockForUpdate adds a row lock on dialects that support it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

type CreateReservationInput struct {
	GuestID         uint
	RoomID          uint
	CheckIn         time.Time
	CheckOut        time.Time
	NumGuests       int
	SpecialRequests string
	Hold            bool // staff-created pending hold instead of immediate confirmation
}

const pendingHoldWindow = 24 * time.Hour

// Create books a room. The availability check is re-run inside the
// transaction while the per-room lock is held, so two concurrent requests
// for the same dates cannot both succeed.
func (s *ReservationService) Create(db *gorm.DB, input CreateReservationInput) (*models.Reservation, error) {
	now := time.Now()

	in := DateOnly(input.CheckIn)
	out := DateOnly(input.CheckOut)
	if !in.Before(out) {
		return nil, ValidationError("checkOut", "checkOut must be after checkIn")
	}
	if in.Before(DateOnly(now)) {
		return nil, ValidationError("checkIn", "checkIn must not be in the past")
	}

	var room models.Room
	if err := db.First(&room, input.RoomID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("room")
		}
		return nil, err
	}
	if input.NumGuests < 1 {
		return nil, ValidationError("numGuests", "at least one guest is required")
	}
	if input.NumGuests > room.MaxOccupancy {
		return nil, ValidationError("numGuests", fmt.Sprintf("room %s sleeps at most %d guests", room.RoomNumber, room.MaxOccupancy))
	}

	lock := s.roomLock(input.RoomID)
	lock.Lock()
	defer lock.Unlock()

	var reservation models.Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&room, input.RoomID).Error; err != nil {
			return err
		}

		ok, reason, err := CheckAvailability(tx, input.RoomID, in, out, now)
		if err != nil {
			return err
		}
		if !ok {
			switch reason {
			case ReasonInvalidRange:
				return ValidationError("checkIn", "invalid date range")
			case ReasonRoomUnavailable:
				return ConflictError("room is not open for booking")
			default:
				return ConflictError("room is not available for the selected dates")
			}
		}

		nights := int(out.Sub(in).Hours() / 24)

		reservation = models.Reservation{
			ConfirmationNumber: NewConfirmationNumber(now),
			RoomID:             input.RoomID,
			GuestID:            input.GuestID,
			CheckIn:            in,
			CheckOut:           out,
			NumGuests:          input.NumGuests,
			SpecialRequests:    input.SpecialRequests,
			TotalAmountCents:   room.NightlyRateCents * int64(nights),
			Status:             models.ReservationConfirmed,
		}
		if input.Hold {
			expires := now.Add(pendingHoldWindow)
			reservation.Status = models.ReservationPending
			reservation.ExpiresAt = &expires
		}

		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	Notify(db, reservation.GuestID, "booking", "Booking Created",
		fmt.Sprintf("Your reservation %s for room %s (%s to %s) has been %s.",
			reservation.ConfirmationNumber, room.RoomNumber,
			in.Format("Jan 2, 2006"), out.Format("Jan 2, 2006"), reservation.Status),
		"reservation", reservation.ID)

	return &reservation, nil
}

// Confirm moves a pending hold to confirmed. Holds do not block other
// bookings, so the room may have been taken while the hold sat pending; the
// availability check is re-run under the room lock before the flip, the same
// way Create closes its check-then-act race.
func (s *ReservationService) Confirm(db *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := db.First(&reservation, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("reservation")
		}
		return nil, err
	}

	lock := s.roomLock(reservation.RoomID)
	lock.Lock()
	defer lock.Unlock()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&reservation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("reservation")
			}
			return err
		}
		if !CanTransition(reservation.Status, models.ReservationConfirmed) {
			return ValidationError("status", fmt.Sprintf("cannot confirm a %s reservation", reservation.Status))
		}

		var conflicts int64
		if err := tx.Model(&models.Reservation{}).
			Where("room_id = ? AND id <> ? AND status IN ? AND check_in < ? AND check_out > ?",
				reservation.RoomID, reservation.ID,
				[]models.ReservationStatus{models.ReservationConfirmed, models.ReservationCheckedIn},
				reservation.CheckOut, reservation.CheckIn).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return ConflictError("room is no longer available for the held dates")
		}

		reservation.Status = models.ReservationConfirmed
		reservation.ExpiresAt = nil
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	Notify(db, reservation.GuestID, "booking", "Booking Confirmed",
		fmt.Sprintf("Reservation %s has been confirmed.", reservation.ConfirmationNumber),
		"reservation", reservation.ID)

	return &reservation, nil
}

// CheckIn moves a confirmed reservation to checked-in and marks the room
// occupied. Not permitted before the reservation's check-in date.
func (s *ReservationService) CheckIn(db *gorm.DB, id uint, now time.Time) (*models.Reservation, error) {
	var reservation models.Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&reservation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("reservation")
			}
			return err
		}
		if !CanTransition(reservation.Status, models.ReservationCheckedIn) {
			return ValidationError("status", fmt.Sprintf("cannot check in a %s reservation", reservation.Status))
		}
		if DateOnly(now).Before(DateOnly(reservation.CheckIn)) {
			return ValidationError("checkIn", "cannot check in before the reservation's check-in date")
		}
		reservation.Status = models.ReservationCheckedIn
		if err := tx.Save(&reservation).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).Where("id = ?", reservation.RoomID).
			Update("status", models.RoomOccupied).Error
	})
	if err != nil {
		return nil, err
	}

	Notify(db, reservation.GuestID, "checkin", "Checked In",
		fmt.Sprintf("Reservation %s is checked in. Enjoy your stay.", reservation.ConfirmationNumber),
		"reservation", reservation.ID)

	return &reservation, nil
}

// CheckOut terminates a checked-in stay: the room goes to cleaning and the
// bill is materialized exactly once via the billing engine.
func (s *ReservationService) CheckOut(db *gorm.DB, id uint, charges []ServiceCharge, policy TaxPolicy, discountCents int64) (*models.Reservation, *models.Bill, error) {
	var reservation models.Reservation
	var bill *models.Bill
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&reservation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("reservation")
			}
			return err
		}
		if !CanTransition(reservation.Status, models.ReservationCheckedOut) {
			return ValidationError("status", fmt.Sprintf("cannot check out a %s reservation", reservation.Status))
		}
		reservation.Status = models.ReservationCheckedOut
		if err := tx.Save(&reservation).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Room{}).Where("id = ?", reservation.RoomID).
			Update("status", models.RoomCleaning).Error; err != nil {
			return err
		}

		var err error
		bill, _, err = GenerateBill(tx, reservation.ID, charges, policy, discountCents)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	Notify(db, reservation.GuestID, "checkout", "Checked Out",
		fmt.Sprintf("Reservation %s is checked out. Invoice %s has been issued.",
			reservation.ConfirmationNumber, bill.InvoiceNumber),
		"bill", bill.ID)

	return &reservation, bill, nil
}

// Cancel terminates a pending or confirmed reservation. The room reverts
// toward available when no other active reservation holds it.
func (s *ReservationService) Cancel(db *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&reservation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("reservation")
			}
			return err
		}
		if !CanTransition(reservation.Status, models.ReservationCancelled) {
			return ValidationError("status", fmt.Sprintf("cannot cancel a %s reservation", reservation.Status))
		}
		reservation.Status = models.ReservationCancelled
		if err := tx.Save(&reservation).Error; err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Reservation{}).
			Where("room_id = ? AND status IN ?", reservation.RoomID,
				[]models.ReservationStatus{models.ReservationConfirmed, models.ReservationCheckedIn}).
			Count(&active).Error; err != nil {
			return err
		}
		if active == 0 {
			if err := tx.Model(&models.Room{}).
				Where("id = ? AND status = ?", reservation.RoomID, models.RoomReserved).
				Update("status", models.RoomAvailable).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	Notify(db, reservation.GuestID, "booking", "Reservation Cancelled",
		fmt.Sprintf("Reservation %s has been cancelled.", reservation.ConfirmationNumber),
		"reservation", reservation.ID)

	return &reservation, nil
}

// ExpirePending sweeps lapsed pending holds to expired. Intended for a
// scheduler-invoked endpoint.
func ExpirePendingReservations(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Model(&models.Reservation{}).
		Where("status = ? AND expires_at < ?", models.ReservationPending, now).
		Update("status", models.ReservationExpired)
	return res.RowsAffected, res.Error
}
