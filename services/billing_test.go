package services_test

import (
	"sync"
	"testing"
	"time"

	"luxurystay-server/models"
	"luxurystay-server/services"
	"luxurystay-server/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCheckedOutStay(t *testing.T, db *gorm.DB) *models.Reservation {
	t.Helper()
	room := seedRoom(t, db, "101", 10000, 2)
	guest := seedGuest(t, db, "billing@example.com")
	reservation := &models.Reservation{
		ConfirmationNumber: "HTL-TEST-BILL01",
		RoomID:             room.ID,
		GuestID:            guest.ID,
		CheckIn:            day(-2),
		CheckOut:           day(0),
		NumGuests:          2,
		TotalAmountCents:   20000,
		Status:             models.ReservationCheckedOut,
	}
	require.NoError(t, db.Create(reservation).Error)
	return reservation
}

func TestTaxOnRoundsHalfUp(t *testing.T) {
	policy := services.TaxPolicy{Components: []services.TaxComponent{
		{Name: "Service Tax", BasisPoints: 1000},
		{Name: "City Tax", BasisPoints: 150},
	}}
	require.Equal(t, int64(1150), policy.TotalBasisPoints())

	// 11.5% of 10000 = 1150 exactly.
	require.Equal(t, int64(1150), policy.TaxOn(10000))
	// 11.5% of 13 = 1.495 cents, rounds to 1.
	require.Equal(t, int64(1), policy.TaxOn(13))
	// 11.5% of 100 = 11.5 cents, half rounds up to 12.
	require.Equal(t, int64(12), policy.TaxOn(100))
}

func TestGenerateBillReconciles(t *testing.T) {
	db := storage.InitializeTestDB()
	reservation := seedCheckedOutStay(t, db)

	charges := []services.ServiceCharge{
		{Name: "Room Service", Quantity: 2, UnitPriceCents: 2500},
		{Name: "Laundry", Quantity: 1, UnitPriceCents: 2000},
	}
	bill, created, err := services.GenerateBill(db, reservation.ID, charges, tenPercent, 0)
	require.NoError(t, err)
	require.True(t, created)

	// 200.00 room + 50.00 + 20.00 services + 10% tax on room charges - 0.
	require.Equal(t, int64(20000), bill.RoomChargesCents)
	require.Equal(t, int64(7000), bill.ServicesTotalCents())
	require.Equal(t, int64(2000), bill.TaxCents)
	require.Equal(t, int64(0), bill.DiscountCents)
	require.Equal(t, int64(29000), bill.TotalCents)
	require.True(t, bill.Reconciles())
	require.Equal(t, models.PaymentPending, bill.PaymentStatus)
	require.Len(t, bill.Services, 2)
	require.Regexp(t, `^INV-\d{6}$`, bill.InvoiceNumber)
}

func TestGenerateBillIsIdempotent(t *testing.T) {
	db := storage.InitializeTestDB()
	reservation := seedCheckedOutStay(t, db)

	first, created, err := services.GenerateBill(db, reservation.ID,
		[]services.ServiceCharge{{Name: "Minibar", Quantity: 1, UnitPriceCents: 1500}}, tenPercent, 0)
	require.NoError(t, err)
	require.True(t, created)

	// Different inputs on a retry are ignored; the stored bill wins.
	second, created, err := services.GenerateBill(db, reservation.ID,
		[]services.ServiceCharge{{Name: "Spa", Quantity: 3, UnitPriceCents: 9000}}, tenPercent, 500)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.TotalCents, second.TotalCents)
	require.Len(t, second.Services, 1)
	require.Equal(t, "Minibar", second.Services[0].Name)

	var count int64
	require.NoError(t, db.Model(&models.Bill{}).
		Where("reservation_id = ?", reservation.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestConcurrentGenerateBillYieldsOneBill(t *testing.T) {
	db := storage.InitializeTestDB()
	reservation := seedCheckedOutStay(t, db)

	const callers = 6
	var wg sync.WaitGroup
	ids := make([]uint, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bill, _, err := services.GenerateBill(db, reservation.ID, nil, tenPercent, 0)
			if bill != nil {
				ids[i] = bill.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	// Losers of the unique-index race get the winner's bill, not an error.
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, db.Model(&models.Bill{}).
		Where("reservation_id = ?", reservation.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestGenerateBillValidatesCharges(t *testing.T) {
	db := storage.InitializeTestDB()
	reservation := seedCheckedOutStay(t, db)

	_, _, err := services.GenerateBill(db, reservation.ID, nil, tenPercent, -100)
	require.True(t, services.IsValidation(err))

	_, _, err = services.GenerateBill(db, reservation.ID,
		[]services.ServiceCharge{{Name: "Spa", Quantity: 0, UnitPriceCents: 100}}, tenPercent, 0)
	require.True(t, services.IsValidation(err))

	_, _, err = services.GenerateBill(db, reservation.ID,
		[]services.ServiceCharge{{Name: "Spa", Quantity: 1, UnitPriceCents: -100}}, tenPercent, 0)
	require.True(t, services.IsValidation(err))

	_, _, err = services.GenerateBill(db, 99999, nil, tenPercent, 0)
	require.True(t, services.IsNotFound(err))
}

func TestGenerateBillAppliesDiscount(t *testing.T) {
	db := storage.InitializeTestDB()
	reservation := seedCheckedOutStay(t, db)

	bill, _, err := services.GenerateBill(db, reservation.ID, nil, tenPercent, 3000)
	require.NoError(t, err)
	// 20000 + 0 + 2000 - 3000.
	require.Equal(t, int64(19000), bill.TotalCents)
	require.True(t, bill.Reconciles())
}

func TestUpdatePaymentStatusIsForwardOnly(t *testing.T) {
	db := storage.InitializeTestDB()
	reservation := seedCheckedOutStay(t, db)

	bill, _, err := services.GenerateBill(db, reservation.ID,
		[]services.ServiceCharge{{Name: "Room Service", Quantity: 1, UnitPriceCents: 5000}}, tenPercent, 0)
	require.NoError(t, err)

	partial, err := services.UpdatePaymentStatus(db, bill.ID, models.PaymentPartial, "card")
	require.NoError(t, err)
	require.Equal(t, models.PaymentPartial, partial.PaymentStatus)
	require.Equal(t, "card", partial.PaymentMethod)
	require.NotEmpty(t, partial.PaymentRef)
	require.Nil(t, partial.PaidAt)

	paid, err := services.UpdatePaymentStatus(db, bill.ID, models.PaymentPaid, "card")
	require.NoError(t, err)
	require.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)
	require.WithinDuration(t, time.Now(), *paid.PaidAt, time.Minute)

	_, err = services.UpdatePaymentStatus(db, bill.ID, models.PaymentPending, "card")
	require.True(t, services.IsValidation(err))

	_, err = services.UpdatePaymentStatus(db, bill.ID, models.PaymentStatus("refunded"), "card")
	require.True(t, services.IsValidation(err))

	// Payment changes never touch the financial lines.
	var stored models.Bill
	require.NoError(t, db.Preload("Services").First(&stored, bill.ID).Error)
	require.Equal(t, bill.TotalCents, stored.TotalCents)
	require.Equal(t, bill.TaxCents, stored.TaxCents)
	require.Len(t, stored.Services, 1)
}
