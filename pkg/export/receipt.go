package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptLine is one allocation row on a printed receipt.
type ReceiptLine struct {
	Component string
	Amount    string
}

// ReceiptData carries everything a payment receipt displays.
type ReceiptData struct {
	ReceiptNumber string
	StudentName   string
	AdmissionNo   string
	Date          time.Time
	Mode          string
	Total         string
	Lines         []ReceiptLine
	Notes         string
}

// RenderReceipt creates a single-page payment receipt PDF.
func (e *PDFExporter) RenderReceipt(data ReceiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Receipt No: %s", data.ReceiptNumber), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(90, 6, fmt.Sprintf("Student: %s", data.StudentName), "", 0, "", false, 0, "")
	pdf.CellFormat(90, 6, fmt.Sprintf("Date: %s", data.Date.Format("2006-01-02")), "", 1, "R", false, 0, "")
	pdf.CellFormat(90, 6, fmt.Sprintf("Admission No: %s", data.AdmissionNo), "", 0, "", false, 0, "")
	pdf.CellFormat(90, 6, fmt.Sprintf("Mode: %s", data.Mode), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Fee Component", "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range data.Lines {
		pdf.CellFormat(130, 7, line.Component, "1", 0, "", false, 0, "")
		pdf.CellFormat(50, 7, line.Amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 8, data.Total, "1", 1, "R", false, 0, "")

	if data.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, fmt.Sprintf("Notes: %s", data.Notes), "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
