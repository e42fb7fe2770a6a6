package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"luxurystay-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceCharge is an additional service requested on check-out, priced in
// minor units.
type ServiceCharge struct {
	Name           string `json:"name" validate:"required"`
	Quantity       int    `json:"quantity" validate:"gte=1"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"gte=0"`
}

// TaxComponent is one named percentage, expressed in basis points so the
// arithmetic stays integral (10% = 1000 bps).
type TaxComponent struct {
	Name        string `json:"name"`
	BasisPoints int64  `json:"basisPoints"`
}

// TaxPolicy is the pluggable set of tax components applied to room charges.
// The component list mirrors the settings entity owned elsewhere; billing
// only consumes it.
type TaxPolicy struct {
	Components []TaxComponent `json:"components"`
}

func (p TaxPolicy) TotalBasisPoints() int64 {
	var sum int64
	for _, c := range p.Components {
		sum += c.BasisPoints
	}
	return sum
}

// TaxOn applies the summed percentages to the given amount with half-up
// rounding to the cent.
func (p TaxPolicy) TaxOn(amountCents int64) int64 {
	return (amountCents*p.TotalBasisPoints() + 5000) / 10000
}

// GenerateBill materializes the invoice for a reservation exactly once.
// A second call returns the existing bill unchanged; the unique index on
// reservation_id backs this under racing callers. The returned bool is true
// when this call created the bill.
func GenerateBill(db *gorm.DB, reservationID uint, charges []ServiceCharge, policy TaxPolicy, discountCents int64) (*models.Bill, bool, error) {
	if discountCents < 0 {
		return nil, false, ValidationError("discountCents", "discount must not be negative")
	}
	for _, c := range charges {
		if c.Quantity < 1 {
			return nil, false, ValidationError("quantity", "service quantity must be at least 1")
		}
		if c.UnitPriceCents < 0 {
			return nil, false, ValidationError("unitPriceCents", "service price must not be negative")
		}
	}

	var bill models.Bill
	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := lockForUpdate(tx).First(&reservation, reservationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("reservation")
			}
			return err
		}

		// Idempotency: hand back the existing bill untouched.
		err := tx.Preload("Services").Where("reservation_id = ?", reservationID).First(&bill).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		roomCharges := reservation.TotalAmountCents
		lines := make([]models.BillService, 0, len(charges))
		var servicesTotal int64
		for _, c := range charges {
			total := c.UnitPriceCents * int64(c.Quantity)
			servicesTotal += total
			lines = append(lines, models.BillService{
				Name:           c.Name,
				Quantity:       c.Quantity,
				UnitPriceCents: c.UnitPriceCents,
				TotalCents:     total,
			})
		}
		tax := policy.TaxOn(roomCharges)
		total := roomCharges + servicesTotal + tax - discountCents

		bill = models.Bill{
			ReservationID:    reservationID,
			GuestID:          reservation.GuestID,
			RoomChargesCents: roomCharges,
			TaxCents:         tax,
			DiscountCents:    discountCents,
			TotalCents:       total,
			PaymentStatus:    models.PaymentPending,
			Services:         lines,
		}

		if !bill.Reconciles() {
			log.Printf("billing invariant violation: reservation=%d room=%d services=%d tax=%d discount=%d total=%d",
				reservationID, roomCharges, servicesTotal, tax, discountCents, total)
			return InvariantError("bill total does not reconcile")
		}

		// A racing caller may win the unique index on reservation_id. The
		// savepoint keeps the surrounding transaction usable after that
		// violation (postgres aborts it otherwise), so the loser can fall
		// back to the winner's bill.
		if err := tx.SavePoint("bill_insert").Error; err != nil {
			return err
		}
		if err := tx.Create(&bill).Error; err != nil {
			if isDuplicateErr(err) {
				if err := tx.RollbackTo("bill_insert").Error; err != nil {
					return err
				}
				created = false
				return tx.Preload("Services").Where("reservation_id = ?", reservationID).First(&bill).Error
			}
			return err
		}

		bill.InvoiceNumber = fmt.Sprintf("INV-%06d", bill.ID)
		created = true
		return tx.Model(&bill).Update("invoice_number", bill.InvoiceNumber).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &bill, created, nil
}

func isDuplicateErr(err error) bool {
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// paymentOrder makes payment status forward-only: pending -> partial -> paid.
var paymentOrder = map[models.PaymentStatus]int{
	models.PaymentPending: 0,
	models.PaymentPartial: 1,
	models.PaymentPaid:    2,
}

// UpdatePaymentStatus records a payment-state change. It never touches the
// financial line items; re-issuing a bill requires a new bill.
func UpdatePaymentStatus(db *gorm.DB, billID uint, status models.PaymentStatus, method string) (*models.Bill, error) {
	rank, ok := paymentOrder[status]
	if !ok {
		return nil, ValidationError("status", "status must be one of pending, partial, paid")
	}

	var bill models.Bill
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("Services").First(&bill, billID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("bill")
			}
			return err
		}
		if rank < paymentOrder[bill.PaymentStatus] {
			return ValidationError("status", fmt.Sprintf("payment status cannot move back from %s to %s", bill.PaymentStatus, status))
		}

		updates := map[string]interface{}{
			"payment_status": status,
			"payment_method": method,
			"payment_ref":    uuid.NewString(),
		}
		if status == models.PaymentPaid {
			now := time.Now()
			updates["paid_at"] = &now
			bill.PaidAt = &now
		}
		if err := tx.Model(&bill).Updates(updates).Error; err != nil {
			return err
		}
		bill.PaymentStatus = status
		bill.PaymentMethod = method
		bill.PaymentRef = updates["payment_ref"].(string)
		return nil
	})
	if err != nil {
		return nil, err
	}

	Notify(db, bill.GuestID, "payment", "Payment Recorded",
		fmt.Sprintf("Invoice %s is now %s.", bill.InvoiceNumber, status),
		"bill", bill.ID)

	return &bill, nil
}
