package services

import (
	"time"

	"luxurystay-server/models"

	"gorm.io/gorm"
)

// Reason enumerates why a room cannot be booked for a date range.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonInvalidRange    Reason = "invalid-range"
	ReasonRoomOccupied    Reason = "room-occupied"
	ReasonRoomUnavailable Reason = "room-unavailable-status"
)

// Overlaps applies the half-open interval test: [aStart, aEnd) intersects
// [bStart, bEnd) when aStart < bEnd && bStart < aEnd. Touching boundaries
// (same-day turnover) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DateOnly truncates a timestamp to midnight UTC so stays compare by day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckAvailability decides whether roomID can be booked for
// [checkIn, checkOut). now anchors the past-date check.
func CheckAvailability(db *gorm.DB, roomID uint, checkIn, checkOut, now time.Time) (bool, Reason, error) {
	in := DateOnly(checkIn)
	out := DateOnly(checkOut)

	if !in.Before(out) {
		return false, ReasonInvalidRange, nil
	}
	if in.Before(DateOnly(now)) {
		return false, ReasonInvalidRange, nil
	}

	var room models.Room
	if err := db.First(&room, roomID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, ReasonRoomUnavailable, NotFoundError("room")
		}
		return false, ReasonRoomUnavailable, err
	}
	if room.Status == models.RoomMaintenance {
		return false, ReasonRoomUnavailable, nil
	}

	var conflicts int64
	err := db.Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			roomID,
			[]models.ReservationStatus{models.ReservationConfirmed, models.ReservationCheckedIn},
			out, in).
		Count(&conflicts).Error
	if err != nil {
		return false, ReasonRoomOccupied, err
	}
	if conflicts > 0 {
		return false, ReasonRoomOccupied, nil
	}

	return true, ReasonNone, nil
}
