package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomCleaning    RoomStatus = "cleaning"
	RoomMaintenance RoomStatus = "maintenance"
	RoomReserved    RoomStatus = "reserved"
)

type RoomType string

const (
	RoomSingle       RoomType = "Single"
	RoomDouble       RoomType = "Double"
	RoomSuite        RoomType = "Suite"
	RoomDeluxe       RoomType = "Deluxe"
	RoomPresidential RoomType = "Presidential"
)

type Room struct {
	gorm.Model
	RoomNumber       string         `json:"roomNumber" gorm:"uniqueIndex;size:16;not null"`
	Type             RoomType       `json:"type" gorm:"type:varchar(20);index"`
	Floor            int            `json:"floor"`
	NightlyRateCents int64          `json:"nightlyRateCents" gorm:"not null"`
	MaxOccupancy     int            `json:"maxOccupancy" gorm:"default:2"`
	Amenities        datatypes.JSON `json:"amenities"`
	Images           string         `json:"images"` // JSON array of URLs
	Description      string         `json:"description" gorm:"type:text"`
	Status           RoomStatus     `json:"status" gorm:"type:varchar(20);default:'available';index"`

	Reservations []Reservation `json:"reservations,omitempty"`
}

// Custom JSON marshaling to convert the Images string and Amenities JSON
// column into plain arrays for clients.
func (r *Room) MarshalJSON() ([]byte, error) {
	type Alias Room
	aux := &struct {
		Images    []string `json:"images"`
		Amenities []string `json:"amenities"`
		*Alias
	}{
		Images:    []string{},
		Amenities: []string{},
		Alias:     (*Alias)(r),
	}

	if r.Images != "" {
		var images []string
		if err := json.Unmarshal([]byte(r.Images), &images); err == nil {
			aux.Images = images
		}
	}

	if r.Amenities != nil {
		var amenities []string
		if err := json.Unmarshal(r.Amenities, &amenities); err == nil {
			aux.Amenities = amenities
		}
	}

	return json.Marshal(aux)
}
