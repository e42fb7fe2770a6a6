package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Bill is the invoice materialized for a reservation, normally at check-out.
// All amounts are integer minor units (cents). Line items are immutable once
// the bill exists; only the payment fields may change afterwards.
type Bill struct {
	gorm.Model
	InvoiceNumber    string        `json:"invoiceNumber" gorm:"uniqueIndex;size:32"`
	ReservationID    uint          `json:"reservationID" gorm:"uniqueIndex;not null"`
	GuestID          uint          `json:"guestID" gorm:"index;not null"`
	RoomChargesCents int64         `json:"roomChargesCents"`
	TaxCents         int64         `json:"taxCents"`
	DiscountCents    int64         `json:"discountCents"`
	TotalCents       int64         `json:"totalCents"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" gorm:"type:varchar(20);default:'pending';index"`
	PaymentMethod    string        `json:"paymentMethod" gorm:"size:32"`
	PaymentRef       string        `json:"paymentRef" gorm:"size:64"`
	PaidAt           *time.Time    `json:"paidAt,omitempty"`

	Services    []BillService `json:"services" gorm:"foreignKey:BillID"`
	Reservation *Reservation  `json:"reservation,omitempty" gorm:"foreignKey:ReservationID"`
	Guest       *User         `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}

// BillService is one additional service line on a bill.
type BillService struct {
	gorm.Model
	BillID         uint   `json:"billID" gorm:"index;not null"`
	Name           string `json:"name" gorm:"size:100;not null"`
	Quantity       int    `json:"quantity" gorm:"default:1"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	TotalCents     int64  `json:"totalCents"`
}

// ServicesTotalCents sums the line-item totals.
func (b *Bill) ServicesTotalCents() int64 {
	var sum int64
	for _, s := range b.Services {
		sum += s.TotalCents
	}
	return sum
}

// Reconciles reports whether the stored total matches its components to the
// cent.
func (b *Bill) Reconciles() bool {
	return b.TotalCents == b.RoomChargesCents+b.ServicesTotalCents()+b.TaxCents-b.DiscountCents
}
