package routes

import (
	"net/http"
	"time"

	"luxurystay-server/models"
	"luxurystay-server/storage"
	"luxurystay-server/utils"

	"github.com/kataras/iris/v12"
)

// GET /admin/reservations
func AdminListReservations(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	status := ctx.URLParamDefault("status", "")
	roomID := ctx.URLParamDefault("room_id", "")
	guestID := ctx.URLParamDefault("guest_id", "")
	dateFrom := ctx.URLParamDefault("date_from", "")
	dateTo := ctx.URLParamDefault("date_to", "")

	q := storage.DB.Model(&models.Reservation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	if guestID != "" {
		q = q.Where("guest_id = ?", guestID)
	}
	if dateFrom != "" {
		if t, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			q = q.Where("check_in >= ?", t)
		}
	}
	if dateTo != "" {
		if t, err := time.Parse(time.RFC3339, dateTo); err == nil {
			q = q.Where("check_out <= ?", t)
		}
	}

	var total int64
	q.Count(&total)

	var items []models.Reservation
	if err := q.Preload("Room").Preload("Guest").Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&items).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.JSONPage(ctx, items, page, perPage, total)
}

// POST /admin/reservations/:id/cancel { reason }
func AdminCancelReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := ctx.ReadJSON(&body); err != nil || body.Reason == "" {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "reason required")
		return
	}

	var before models.Reservation
	if err := storage.DB.First(&before, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "reservation not found")
		return
	}

	// Go through the lifecycle so the room side effects stay consistent;
	// admin cancellation gets no special bypass of the state machine.
	res, svcErr := lifecycle.Cancel(storage.DB, id)
	if svcErr != nil {
		utils.RespondError(ctx, svcErr)
		return
	}
	if body.Reason != "" {
		storage.DB.Model(res).Update("special_requests", res.SpecialRequests+"\n[cancelled by staff: "+body.Reason+"]")
	}

	utils.Audit(ctx, "reservation.cancel", "reservation", res.ID, before, res)
	ctx.JSON(iris.Map{"data": res})
}
