package routes

import (
	"encoding/json"

	"luxurystay-server/models"
	"luxurystay-server/services"
	"luxurystay-server/storage"
	"luxurystay-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/datatypes"
)

var roomStatuses = []models.RoomStatus{
	models.RoomAvailable, models.RoomOccupied, models.RoomCleaning,
	models.RoomMaintenance, models.RoomReserved,
}

var roomTypes = []models.RoomType{
	models.RoomSingle, models.RoomDouble, models.RoomSuite,
	models.RoomDeluxe, models.RoomPresidential,
}

func GetRooms(ctx iris.Context) {
	status := ctx.URLParamDefault("status", "")
	roomType := ctx.URLParamDefault("roomType", "")

	q := storage.DB.Model(&models.Room{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if roomType != "" {
		q = q.Where("type = ?", roomType)
	}

	var rooms []models.Room
	if err := q.Order("room_number ASC").Find(&rooms).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(rooms)
}

func GetRoom(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid room ID", ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}
	ctx.JSON(room)
}

type CreateRoomInput struct {
	RoomNumber       string   `json:"roomNumber" validate:"required,max=16"`
	Type             string   `json:"type" validate:"required,oneof=Single Double Suite Deluxe Presidential"`
	Floor            int      `json:"floor"`
	NightlyRateCents int64    `json:"nightlyRateCents" validate:"required,gt=0"`
	MaxOccupancy     int      `json:"maxOccupancy" validate:"required,gte=1,lte=16"`
	Amenities        []string `json:"amenities"`
	Images           []string `json:"images"`
	Description      string   `json:"description"`
}

func CreateRoom(ctx iris.Context) {
	var input CreateRoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existing int64
	storage.DB.Model(&models.Room{}).Where("room_number = ?", input.RoomNumber).Count(&existing)
	if existing > 0 {
		utils.CreateError(iris.StatusConflict, "Conflict", "Room number already exists", ctx)
		return
	}

	amenities, _ := json.Marshal(input.Amenities)
	images, _ := json.Marshal(input.Images)

	room := models.Room{
		RoomNumber:       input.RoomNumber,
		Type:             models.RoomType(input.Type),
		Floor:            input.Floor,
		NightlyRateCents: input.NightlyRateCents,
		MaxOccupancy:     input.MaxOccupancy,
		Amenities:        datatypes.JSON(amenities),
		Images:           string(images),
		Description:      input.Description,
		Status:           models.RoomAvailable,
	}
	if err := storage.DB.Create(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(room)
}

type UpdateRoomInput struct {
	Status           string   `json:"status"`
	NightlyRateCents *int64   `json:"nightlyRateCents"`
	MaxOccupancy     *int     `json:"maxOccupancy"`
	Amenities        []string `json:"amenities"`
	Images           []string `json:"images"`
	Description      *string  `json:"description"`
}

// UpdateRoom is the staff override for room details and status. Status
// changes that contradict the lifecycle are rejected: a room cannot be
// pulled out of (or pushed into) occupied while a checked-in reservation
// holds it; the reservation must be checked out first.
func UpdateRoom(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid room ID", ctx)
		return
	}

	var input UpdateRoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}
	before := room

	if input.Status != "" {
		newStatus := models.RoomStatus(input.Status)
		if !slices.Contains(roomStatuses, newStatus) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown room status", ctx)
			return
		}
		if newStatus != room.Status {
			var checkedIn int64
			storage.DB.Model(&models.Reservation{}).
				Where("room_id = ? AND status = ?", room.ID, models.ReservationCheckedIn).
				Count(&checkedIn)
			if checkedIn > 0 && (room.Status == models.RoomOccupied || newStatus == models.RoomOccupied) {
				utils.RespondError(ctx, services.ConflictError("room has a checked-in reservation; check it out before overriding the status"))
				return
			}
			room.Status = newStatus
		}
	}

	if input.NightlyRateCents != nil {
		if *input.NightlyRateCents <= 0 {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "nightlyRateCents must be positive", ctx)
			return
		}
		room.NightlyRateCents = *input.NightlyRateCents
	}
	if input.MaxOccupancy != nil {
		room.MaxOccupancy = *input.MaxOccupancy
	}
	if input.Amenities != nil {
		amenities, _ := json.Marshal(input.Amenities)
		room.Amenities = datatypes.JSON(amenities)
	}
	if input.Images != nil {
		images, _ := json.Marshal(input.Images)
		room.Images = string(images)
	}
	if input.Description != nil {
		room.Description = *input.Description
	}

	if err := storage.DB.Save(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "room.update", "room", room.ID, before, room)
	ctx.JSON(room)
}
