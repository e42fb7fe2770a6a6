package routes

import (
	"time"

	"luxurystay-server/models"
	"luxurystay-server/services"
	"luxurystay-server/storage"
	"luxurystay-server/utils"

	"github.com/kataras/iris/v12"
)

// lifecycle is the single owner of reservation status changes and their
// room side effects.
var lifecycle = services.NewReservationService()

type CreateReservationInput struct {
	RoomID          uint      `json:"roomId" validate:"required"`
	CheckInDate     time.Time `json:"checkInDate" validate:"required"`
	CheckOutDate    time.Time `json:"checkOutDate" validate:"required"`
	NumberOfGuests  int       `json:"numberOfGuests" validate:"required,gte=1,lte=16"`
	SpecialRequests string    `json:"specialRequests"`
	GuestID         uint      `json:"guestId"` // staff booking on a guest's behalf
	Hold            bool      `json:"hold"`    // staff-only pending hold
}

func CreateReservation(ctx iris.Context) {
	var input CreateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	guestID := utils.RequestUserID(ctx)
	hold := false
	if utils.IsStaffRequest(ctx) {
		if input.GuestID != 0 {
			guestID = input.GuestID
		}
		hold = input.Hold
	}

	reservation, err := lifecycle.Create(storage.DB, services.CreateReservationInput{
		GuestID:         guestID,
		RoomID:          input.RoomID,
		CheckIn:         input.CheckInDate,
		CheckOut:        input.CheckOutDate,
		NumGuests:       input.NumberOfGuests,
		SpecialRequests: input.SpecialRequests,
		Hold:            hold,
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	storage.DB.Preload("Room").Preload("Guest").First(reservation, reservation.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(reservation)
}

func GetReservations(ctx iris.Context) {
	status := ctx.URLParamDefault("status", "")
	guestID := ctx.URLParamDefault("guestId", "")
	roomID := ctx.URLParamDefault("roomId", "")

	q := storage.DB.Model(&models.Reservation{})
	if !utils.IsStaffRequest(ctx) {
		// Guests only ever see their own reservations.
		q = q.Where("guest_id = ?", utils.RequestUserID(ctx))
	} else if guestID != "" {
		q = q.Where("guest_id = ?", guestID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}

	var reservations []models.Reservation
	if err := q.Preload("Room").Preload("Guest").Order("created_at DESC").Find(&reservations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(reservations)
}

func GetReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	var reservation models.Reservation
	if err := storage.DB.Preload("Room").Preload("Guest").First(&reservation, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}
	if !utils.IsStaffRequest(ctx) && reservation.GuestID != utils.RequestUserID(ctx) {
		utils.RespondError(ctx, services.ForbiddenError("reservation belongs to another guest"))
		return
	}
	ctx.JSON(reservation)
}

// ConfirmReservation flips a staff-created pending hold to confirmed. The
// lifecycle re-validates availability, so a hold whose dates were booked in
// the meantime comes back as a conflict.
func ConfirmReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	reservation, svcErr := lifecycle.Confirm(storage.DB, id)
	if svcErr != nil {
		utils.RespondError(ctx, svcErr)
		return
	}

	storage.DB.Preload("Room").Preload("Guest").First(reservation, reservation.ID)
	ctx.JSON(reservation)
}

// CheckInReservation is the explicit confirmed -> checked-in transition.
func CheckInReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	reservation, svcErr := lifecycle.CheckIn(storage.DB, id, time.Now())
	if svcErr != nil {
		utils.RespondError(ctx, svcErr)
		return
	}

	storage.DB.Preload("Room").Preload("Guest").First(reservation, reservation.ID)
	ctx.JSON(reservation)
}

type CheckOutInput struct {
	Services      []services.ServiceCharge `json:"services"`
	DiscountCents int64                    `json:"discountCents"`
}

// CheckOutReservation terminates the stay and materializes the bill.
func CheckOutReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	var input CheckOutInput
	if ctx.GetContentLength() > 0 {
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
	}

	reservation, bill, svcErr := lifecycle.CheckOut(storage.DB, id, input.Services, defaultTaxPolicy(), input.DiscountCents)
	if svcErr != nil {
		utils.RespondError(ctx, svcErr)
		return
	}

	storage.DB.Preload("Room").Preload("Guest").First(reservation, reservation.ID)
	ctx.JSON(iris.Map{"reservation": reservation, "bill": bill})
}

type UpdateReservationInput struct {
	Status          string  `json:"status"`
	SpecialRequests *string `json:"specialRequests"`
}

// UpdateReservation is the generic field update. It is deliberately
// restricted: the only status it accepts is cancelled. Check-in and
// check-out carry side effects and must go through their explicit routes.
func UpdateReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid reservation ID", ctx)
		return
	}

	var input UpdateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var reservation models.Reservation
	if err := storage.DB.First(&reservation, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}
	if !utils.IsStaffRequest(ctx) && reservation.GuestID != utils.RequestUserID(ctx) {
		utils.RespondError(ctx, services.ForbiddenError("reservation belongs to another guest"))
		return
	}

	if input.Status != "" && input.Status != string(models.ReservationCancelled) {
		utils.RespondError(ctx, services.ValidationError("status",
			"only cancellation may be requested here; check-in and check-out have dedicated endpoints"))
		return
	}

	if input.Status == string(models.ReservationCancelled) {
		updated, svcErr := lifecycle.Cancel(storage.DB, id)
		if svcErr != nil {
			utils.RespondError(ctx, svcErr)
			return
		}
		reservation = *updated
	}

	if input.SpecialRequests != nil {
		if err := storage.DB.Model(&reservation).Update("special_requests", *input.SpecialRequests).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		reservation.SpecialRequests = *input.SpecialRequests
	}

	storage.DB.Preload("Room").Preload("Guest").First(&reservation, reservation.ID)
	ctx.JSON(reservation)
}

// ExpirePendingReservations sweeps lapsed pending holds. Intended to be
// called by a scheduler.
func ExpirePendingReservations(ctx iris.Context) {
	n, err := services.ExpirePendingReservations(storage.DB, time.Now())
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"ok": true, "expired": n})
}
