package receipt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sefazor/storefront/pkg/utils"
)

type Line struct {
	Name     string
	Quantity int
	Price    float64
}

func (l Line) Total() float64 {
	return l.Price * float64(l.Quantity)
}

type Receipt struct {
	OrderID      string
	PaymentID    string
	Method       string
	Amount       float64
	CustomerPaid float64
	Change       float64
	Items        []Line
	IssuedAt     time.Time
}

func (r Receipt) Filename() string {
	return fmt.Sprintf("receipt-%s.pdf", r.OrderID)
}

type Options struct {
	// FontPath points at a TTF with Vietnamese glyphs. Without it the core
	// Helvetica font is used and characters outside cp1252 are lost.
	FontPath string
	Locale   string
}

const family = "receipt"

// Render writes r as a single page A5 PDF.
func Render(w io.Writer, r Receipt, opts Options) error {
	if r.OrderID == "" {
		return errors.New("receipt needs an order id")
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Payment Receipt "+r.OrderID, true)
	if !r.IssuedAt.IsZero() {
		pdf.SetCreationDate(r.IssuedAt)
	}

	text := func(s string) string { return s }
	fontFamily := family
	if opts.FontPath != "" {
		pdf.AddUTF8Font(family, "", opts.FontPath)
		pdf.AddUTF8Font(family, "B", opts.FontPath)
	} else {
		fontFamily = "Helvetica"
		text = pdf.UnicodeTranslatorFromDescriptor("")
	}
	money := func(v float64) string {
		return utils.FormatAmount(v, opts.Locale) + " VND"
	}

	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, text("Payment Receipt"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 10)
	rows := [][2]string{
		{"Order ID", r.OrderID},
		{"Payment ID", r.PaymentID},
		{"Payment method", r.Method},
		{"Amount", money(r.Amount)},
		{"Customer paid", money(r.CustomerPaid)},
		{"Change", money(r.Change)},
	}
	if !r.IssuedAt.IsZero() {
		rows = append(rows, [2]string{"Date", r.IssuedAt.Format("2006-01-02 15:04")})
	}
	for _, row := range rows {
		pdf.CellFormat(40, 6, text(row[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, text(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{60, 16, 26, 26}
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, head := range []string{"Item", "Qty", "Price", "Total"} {
		pdf.CellFormat(widths[i], 7, text(head), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 9)
	for _, item := range r.Items {
		pdf.CellFormat(widths[0], 6, text(item.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, utils.FormatAmount(item.Price, opts.Locale), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, utils.FormatAmount(item.Total(), opts.Locale), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont(fontFamily, "", 11)
	pdf.CellFormat(0, 8, text("Thank you for your purchase!"), "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	return pdf.Output(w)
}
