package services

import (
	"bytes"
	"fmt"

	"luxurystay-server/models"

	"github.com/jung-kurt/gofpdf"
)

// RenderInvoicePDF serializes a stored bill into a PDF document. It renders
// exactly what was persisted and recomputes nothing, so what the guest
// downloads always matches what was charged.
func RenderInvoicePDF(bill *models.Bill) ([]byte, error) {
	if bill == nil {
		return nil, NotFoundError("bill")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", bill.InvoiceNumber), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "LuxuryStay Hospitality")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice %s", bill.InvoiceNumber))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Issued %s", bill.CreatedAt.Format("Jan 2, 2006")))
	pdf.Ln(10)

	if res := bill.Reservation; res != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Reservation %s", res.ConfirmationNumber))
		pdf.Ln(5)
		if res.Room != nil {
			pdf.Cell(0, 6, fmt.Sprintf("Room %s (%s)", res.Room.RoomNumber, res.Room.Type))
			pdf.Ln(5)
		}
		pdf.Cell(0, 6, fmt.Sprintf("Stay %s - %s",
			res.CheckIn.Format("Jan 2, 2006"), res.CheckOut.Format("Jan 2, 2006")))
		pdf.Ln(5)
	}
	if g := bill.Guest; g != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Guest: %s %s", g.FirstName, g.LastName))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Line items
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(100, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(100, 8, "Room charges", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, FormatCents(bill.RoomChargesCents), "1", 1, "R", false, 0, "")

	for _, s := range bill.Services {
		pdf.CellFormat(100, 8, s.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", s.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, FormatCents(s.UnitPriceCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, FormatCents(s.TotalCents), "1", 1, "R", false, 0, "")
	}

	totalRow := func(label string, cents int64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(155, 8, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, FormatCents(cents), "1", 1, "R", false, 0, "")
	}
	totalRow("Taxes", bill.TaxCents, false)
	totalRow("Discount", -bill.DiscountCents, false)
	totalRow("Total", bill.TotalCents, true)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Payment status: %s", bill.PaymentStatus))
	if bill.PaymentMethod != "" {
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Payment method: %s", bill.PaymentMethod))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
