package routes

import (
	"fmt"
	"os"
	"strconv"

	"luxurystay-server/models"
	"luxurystay-server/services"
	"luxurystay-server/storage"
	"luxurystay-server/utils"

	"github.com/kataras/iris/v12"
)

// defaultTaxPolicy reads the property's tax configuration from the
// environment (owned by the settings collaborator, consumed here).
// Components are basis points applied to room charges.
func defaultTaxPolicy() services.TaxPolicy {
	components := []services.TaxComponent{}
	for _, c := range []struct {
		name string
		env  string
	}{
		{"Service Tax", "SERVICE_TAX_BPS"},
		{"GST", "GST_BPS"},
		{"City Tax", "CITY_TAX_BPS"},
	} {
		if v := os.Getenv(c.env); v != "" {
			if bps, err := strconv.ParseInt(v, 10, 64); err == nil && bps > 0 {
				components = append(components, services.TaxComponent{Name: c.name, BasisPoints: bps})
			}
		}
	}
	if len(components) == 0 {
		components = append(components, services.TaxComponent{Name: "Service Tax", BasisPoints: 1000})
	}
	return services.TaxPolicy{Components: components}
}

type CreateBillInput struct {
	ReservationID uint                     `json:"reservationId" validate:"required"`
	Services      []services.ServiceCharge `json:"services"`
	DiscountCents int64                    `json:"discountCents"`
	TaxComponents []services.TaxComponent  `json:"taxComponents"`
}

// CreateBill materializes the bill for a reservation ahead of (or instead
// of) the check-out trigger. Idempotent: a repeat call returns the existing
// bill with a 200 instead of a 201.
func CreateBill(ctx iris.Context) {
	var input CreateBillInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	policy := defaultTaxPolicy()
	if len(input.TaxComponents) > 0 {
		policy = services.TaxPolicy{Components: input.TaxComponents}
	}

	bill, created, err := services.GenerateBill(storage.DB, input.ReservationID, input.Services, policy, input.DiscountCents)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	if created {
		ctx.StatusCode(iris.StatusCreated)
	}
	ctx.JSON(bill)
}

func GetBills(ctx iris.Context) {
	guestID := ctx.URLParamDefault("guestId", "")
	paymentStatus := ctx.URLParamDefault("paymentStatus", "")

	q := storage.DB.Model(&models.Bill{})
	if !utils.IsStaffRequest(ctx) {
		q = q.Where("guest_id = ?", utils.RequestUserID(ctx))
	} else if guestID != "" {
		q = q.Where("guest_id = ?", guestID)
	}
	if paymentStatus != "" {
		q = q.Where("payment_status = ?", paymentStatus)
	}

	var bills []models.Bill
	if err := q.Preload("Services").Preload("Reservation").Order("created_at DESC").Find(&bills).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(bills)
}

func loadBillForRequest(ctx iris.Context) *models.Bill {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid bill ID", ctx)
		return nil
	}

	var bill models.Bill
	if err := storage.DB.Preload("Services").Preload("Reservation").Preload("Reservation.Room").Preload("Guest").First(&bill, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Bill not found", ctx)
		return nil
	}
	if !utils.IsStaffRequest(ctx) && bill.GuestID != utils.RequestUserID(ctx) {
		utils.RespondError(ctx, services.ForbiddenError("bill belongs to another guest"))
		return nil
	}
	return &bill
}

func GetBill(ctx iris.Context) {
	bill := loadBillForRequest(ctx)
	if bill == nil {
		return
	}
	ctx.JSON(bill)
}

type UpdatePaymentInput struct {
	Status string `json:"status" validate:"required,oneof=pending partial paid"`
	Method string `json:"method" validate:"required,max=32"`
}

// UpdatePayment records a payment-state change. The financial line items
// are immutable; only payment fields move.
func UpdatePayment(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid bill ID", ctx)
		return
	}

	var input UpdatePaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var before models.Bill
	if err := storage.DB.First(&before, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Bill not found", ctx)
		return
	}

	bill, svcErr := services.UpdatePaymentStatus(storage.DB, id, models.PaymentStatus(input.Status), input.Method)
	if svcErr != nil {
		utils.RespondError(ctx, svcErr)
		return
	}

	utils.Audit(ctx, "bill.payment_update", "bill", bill.ID, before, bill)
	ctx.JSON(bill)
}

// DownloadInvoicePDF renders the stored bill as a PDF document.
func DownloadInvoicePDF(ctx iris.Context) {
	bill := loadBillForRequest(ctx)
	if bill == nil {
		return
	}

	doc, err := services.RenderInvoicePDF(bill)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	name := bill.InvoiceNumber
	if name == "" {
		name = fmt.Sprintf("%d", bill.ID)
	}
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice_%s.pdf"`, name))
	ctx.ContentType("application/pdf")
	ctx.Write(doc)
}
