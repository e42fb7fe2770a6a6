package models

import (
	"time"

	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked-in"
	ReservationCheckedOut ReservationStatus = "checked-out"
	ReservationCancelled  ReservationStatus = "cancelled"
	ReservationExpired    ReservationStatus = "expired" // lapsed pending hold
)

// Reservation models a guest's stay in a room. Status is only mutated
// through the lifecycle service; rows are never deleted, only terminated
// via cancelled/checked-out/expired.
type Reservation struct {
	gorm.Model
	ConfirmationNumber string            `json:"confirmationNumber" gorm:"uniqueIndex;size:32;not null"`
	RoomID             uint              `json:"roomID" gorm:"index;not null"`
	GuestID            uint              `json:"guestID" gorm:"index;not null"`
	CheckIn            time.Time         `json:"checkIn" gorm:"not null"`
	CheckOut           time.Time         `json:"checkOut" gorm:"not null"`
	NumGuests          int               `json:"numGuests"`
	SpecialRequests    string            `json:"specialRequests" gorm:"size:1000"`
	TotalAmountCents   int64             `json:"totalAmountCents"`
	Status             ReservationStatus `json:"status" gorm:"type:varchar(20);index"`
	ExpiresAt          *time.Time        `json:"expiresAt,omitempty"` // 24h window for pending holds

	Room  *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Guest *User `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}

// Active reports whether the reservation currently holds its room's dates.
func (r *Reservation) Active() bool {
	return r.Status == ReservationConfirmed || r.Status == ReservationCheckedIn
}

// Terminal reports whether no further lifecycle transitions are permitted.
func (r *Reservation) Terminal() bool {
	return r.Status == ReservationCheckedOut || r.Status == ReservationCancelled || r.Status == ReservationExpired
}
