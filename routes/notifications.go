package routes

import (
	"luxurystay-server/services"
	"luxurystay-server/storage"
	"luxurystay-server/utils"

	"github.com/kataras/iris/v12"
)

// Notifications are delivered by polling; clients re-fetch this list.
func GetNotifications(ctx iris.Context) {
	userID := utils.RequestUserID(ctx)
	unreadOnly, _ := ctx.URLParamBool("unreadOnly")

	notifications, err := services.ListNotifications(storage.DB, userID, unreadOnly)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(notifications)
}

func MarkNotificationRead(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid notification ID", ctx)
		return
	}

	n, svcErr := services.MarkNotificationRead(storage.DB, id, utils.RequestUserID(ctx))
	if svcErr != nil {
		utils.RespondError(ctx, svcErr)
		return
	}
	ctx.JSON(n)
}

func MarkAllNotificationsRead(ctx iris.Context) {
	n, err := services.MarkAllNotificationsRead(storage.DB, utils.RequestUserID(ctx))
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"ok": true, "marked": n})
}
