package services_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"luxurystay-server/models"
	"luxurystay-server/services"
	"luxurystay-server/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var tenPercent = services.TaxPolicy{Components: []services.TaxComponent{{Name: "Service Tax", BasisPoints: 1000}}}

func createReservation(t *testing.T, db *gorm.DB, svc *services.ReservationService, roomID, guestID uint, in, out time.Time) *models.Reservation {
	t.Helper()
	reservation, err := svc.Create(db, services.CreateReservationInput{
		GuestID:   guestID,
		RoomID:    roomID,
		CheckIn:   in,
		CheckOut:  out,
		NumGuests: 2,
	})
	require.NoError(t, err)
	return reservation
}

func TestCreateReservationPricesStay(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2) // $100.00 per night
	guest := seedGuest(t, db, "alice@example.com")

	reservation := createReservation(t, db, svc, room.ID, guest.ID, day(1), day(3))

	require.Equal(t, int64(20000), reservation.TotalAmountCents)
	require.Equal(t, models.ReservationConfirmed, reservation.Status)
	require.True(t, strings.HasPrefix(reservation.ConfirmationNumber, "HTL-"))
	require.Nil(t, reservation.ExpiresAt)
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")
	other := seedGuest(t, db, "bob@example.com")

	createReservation(t, db, svc, room.ID, guest.ID, day(1), day(3))

	_, err := svc.Create(db, services.CreateReservationInput{
		GuestID:   other.ID,
		RoomID:    room.ID,
		CheckIn:   day(2),
		CheckOut:  day(4),
		NumGuests: 2,
	})
	require.Error(t, err)
	require.True(t, services.IsConflict(err), "expected conflict, got %v", err)

	// Same-day turnover on the boundary is accepted.
	boundary := createReservation(t, db, svc, room.ID, other.ID, day(3), day(5))
	require.Equal(t, models.ReservationConfirmed, boundary.Status)
}

func TestCreateReservationValidatesInput(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "102", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")

	_, err := svc.Create(db, services.CreateReservationInput{
		GuestID: guest.ID, RoomID: room.ID, CheckIn: day(3), CheckOut: day(1), NumGuests: 2,
	})
	require.True(t, services.IsValidation(err))

	_, err = svc.Create(db, services.CreateReservationInput{
		GuestID: guest.ID, RoomID: room.ID, CheckIn: day(-2), CheckOut: day(1), NumGuests: 2,
	})
	require.True(t, services.IsValidation(err))

	_, err = svc.Create(db, services.CreateReservationInput{
		GuestID: guest.ID, RoomID: room.ID, CheckIn: day(1), CheckOut: day(3), NumGuests: 5,
	})
	require.True(t, services.IsValidation(err))

	_, err = svc.Create(db, services.CreateReservationInput{
		GuestID: guest.ID, RoomID: 9999, CheckIn: day(1), CheckOut: day(3), NumGuests: 2,
	})
	require.True(t, services.IsNotFound(err))
}

func TestConcurrentCreateAdmitsExactlyOne(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "301", 15000, 4)
	guest := seedGuest(t, db, "crowd@example.com")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(db, services.CreateReservationInput{
				GuestID:   guest.ID,
				RoomID:    room.ID,
				CheckIn:   day(1),
				CheckOut:  day(3),
				NumGuests: 2,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.True(t, services.IsConflict(err), "losers must get a conflict, got %v", err)
		}
	}
	require.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("room_id = ? AND status = ?", room.ID, models.ReservationConfirmed).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestLifecycleTransitions(t *testing.T) {
	valid := [][2]models.ReservationStatus{
		{models.ReservationPending, models.ReservationConfirmed},
		{models.ReservationPending, models.ReservationCancelled},
		{models.ReservationPending, models.ReservationExpired},
		{models.ReservationConfirmed, models.ReservationCheckedIn},
		{models.ReservationConfirmed, models.ReservationCancelled},
		{models.ReservationCheckedIn, models.ReservationCheckedOut},
	}
	for _, pair := range valid {
		require.True(t, services.CanTransition(pair[0], pair[1]), "%s -> %s should be allowed", pair[0], pair[1])
	}

	invalid := [][2]models.ReservationStatus{
		{models.ReservationCheckedIn, models.ReservationCancelled},
		{models.ReservationCheckedOut, models.ReservationCheckedIn},
		{models.ReservationCancelled, models.ReservationConfirmed},
		{models.ReservationExpired, models.ReservationConfirmed},
		{models.ReservationConfirmed, models.ReservationCheckedOut},
	}
	for _, pair := range invalid {
		require.False(t, services.CanTransition(pair[0], pair[1]), "%s -> %s should be rejected", pair[0], pair[1])
	}
}

func TestCheckInMarksRoomOccupied(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")

	reservation := createReservation(t, db, svc, room.ID, guest.ID, day(0), day(2))

	// Arriving a day early is rejected and leaves the state alone.
	_, err := svc.CheckIn(db, reservation.ID, time.Now().AddDate(0, 0, -1))
	require.True(t, services.IsValidation(err))

	checked, err := svc.CheckIn(db, reservation.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, models.ReservationCheckedIn, checked.Status)

	var got models.Room
	require.NoError(t, db.First(&got, room.ID).Error)
	require.Equal(t, models.RoomOccupied, got.Status)

	// Checking in twice is not a defined move.
	_, err = svc.CheckIn(db, reservation.ID, time.Now())
	require.True(t, services.IsValidation(err))
}

func TestCheckOutIssuesBillAndFreesRoom(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")

	reservation := createReservation(t, db, svc, room.ID, guest.ID, day(0), day(2))
	_, err := svc.CheckIn(db, reservation.ID, time.Now())
	require.NoError(t, err)

	charges := []services.ServiceCharge{
		{Name: "Room Service", Quantity: 1, UnitPriceCents: 5000},
	}
	out, bill, err := svc.CheckOut(db, reservation.ID, charges, tenPercent, 0)
	require.NoError(t, err)
	require.Equal(t, models.ReservationCheckedOut, out.Status)
	require.NotNil(t, bill)
	require.Equal(t, int64(20000), bill.RoomChargesCents)
	require.Equal(t, int64(2000), bill.TaxCents)
	require.Equal(t, int64(27000), bill.TotalCents)
	require.NotEmpty(t, bill.InvoiceNumber)

	var got models.Room
	require.NoError(t, db.First(&got, room.ID).Error)
	require.Equal(t, models.RoomCleaning, got.Status)

	// A checked-out reservation cannot be cancelled.
	_, err = svc.Cancel(db, reservation.ID)
	require.True(t, services.IsValidation(err))

	var unchanged models.Reservation
	require.NoError(t, db.First(&unchanged, reservation.ID).Error)
	require.Equal(t, models.ReservationCheckedOut, unchanged.Status)
}

func TestCancelReleasesReservedRoom(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")

	reservation := createReservation(t, db, svc, room.ID, guest.ID, day(1), day(3))
	require.NoError(t, db.Model(&models.Room{}).Where("id = ?", room.ID).
		Update("status", models.RoomReserved).Error)

	cancelled, err := svc.Cancel(db, reservation.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationCancelled, cancelled.Status)

	var got models.Room
	require.NoError(t, db.First(&got, room.ID).Error)
	require.Equal(t, models.RoomAvailable, got.Status)

	// The freed dates are bookable again.
	createReservation(t, db, svc, room.ID, guest.ID, day(1), day(3))
}

func TestPendingHoldExpiry(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")

	hold, err := svc.Create(db, services.CreateReservationInput{
		GuestID:   guest.ID,
		RoomID:    room.ID,
		CheckIn:   day(1),
		CheckOut:  day(3),
		NumGuests: 2,
		Hold:      true,
	})
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, hold.Status)
	require.NotNil(t, hold.ExpiresAt)

	// Sweeping before the window lapses touches nothing.
	n, err := services.ExpirePendingReservations(db, time.Now())
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = services.ExpirePendingReservations(db, time.Now().Add(25*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	var got models.Reservation
	require.NoError(t, db.First(&got, hold.ID).Error)
	require.Equal(t, models.ReservationExpired, got.Status)

	// An expired hold is terminal.
	_, err = svc.Confirm(db, hold.ID)
	require.True(t, services.IsValidation(err))
}

func TestConfirmRejectsHoldWhoseDatesWereTaken(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "909", 10000, 2)
	staff := seedGuest(t, db, "walkin@example.com")
	guest := seedGuest(t, db, "direct@example.com")

	// Holds don't block availability, so a direct booking can take the
	// dates while the hold sits pending.
	hold, err := svc.Create(db, services.CreateReservationInput{
		GuestID: staff.ID, RoomID: room.ID, CheckIn: day(1), CheckOut: day(3), NumGuests: 2, Hold: true,
	})
	require.NoError(t, err)

	createReservation(t, db, svc, room.ID, guest.ID, day(1), day(3))

	_, err = svc.Confirm(db, hold.ID)
	require.True(t, services.IsConflict(err), "expected conflict, got %v", err)

	var unchanged models.Reservation
	require.NoError(t, db.First(&unchanged, hold.ID).Error)
	require.Equal(t, models.ReservationPending, unchanged.Status)

	var confirmed int64
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			room.ID,
			[]models.ReservationStatus{models.ReservationConfirmed, models.ReservationCheckedIn},
			day(3), day(1)).
		Count(&confirmed).Error)
	require.Equal(t, int64(1), confirmed)

	// A partial overlap blocks confirmation the same way.
	hold2, err := svc.Create(db, services.CreateReservationInput{
		GuestID: staff.ID, RoomID: room.ID, CheckIn: day(2), CheckOut: day(5), NumGuests: 2, Hold: true,
	})
	require.NoError(t, err)
	_, err = svc.Confirm(db, hold2.ID)
	require.True(t, services.IsConflict(err))

	// Boundary-touching dates still confirm.
	hold3, err := svc.Create(db, services.CreateReservationInput{
		GuestID: staff.ID, RoomID: room.ID, CheckIn: day(3), CheckOut: day(5), NumGuests: 2, Hold: true,
	})
	require.NoError(t, err)
	confirmedHold, err := svc.Confirm(db, hold3.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationConfirmed, confirmedHold.Status)
}

func TestConfirmPendingHold(t *testing.T) {
	db := storage.InitializeTestDB()
	svc := services.NewReservationService()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "alice@example.com")

	hold, err := svc.Create(db, services.CreateReservationInput{
		GuestID: guest.ID, RoomID: room.ID, CheckIn: day(1), CheckOut: day(3), NumGuests: 2, Hold: true,
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(db, hold.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationConfirmed, confirmed.Status)
	require.Nil(t, confirmed.ExpiresAt)
}
