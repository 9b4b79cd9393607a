package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/praxisdesk/praxisdesk/internal/domain/billing"
	"github.com/praxisdesk/praxisdesk/internal/domain/entity"
)

// StatementWriter renders a financial document and its line items as an XLSX
// workbook for download or archiving.
type StatementWriter struct {
	companyName string
	logger      *zap.Logger
}

// NewStatementWriter creates a statement writer
func NewStatementWriter(companyName string, logger *zap.Logger) *StatementWriter {
	return &StatementWriter{
		companyName: companyName,
		logger:      logger,
	}
}

// Write renders the statement into w
func (sw *StatementWriter) Write(w io.Writer, doc *entity.FinancialDocument, items []*entity.LineItem, ownerName string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	f.SetSheetName("Sheet1", sheet)

	sw.setCell(f, sheet, "A1", sw.companyName)
	sw.setCell(f, sheet, "A2", fmt.Sprintf("%s %s", docTitle(doc.Kind), doc.Number))
	sw.setCell(f, sheet, "A3", "Billed to")
	sw.setCell(f, sheet, "B3", ownerName)
	sw.setCell(f, sheet, "A4", "Status")
	sw.setCell(f, sheet, "B4", doc.Status)
	sw.setCell(f, sheet, "A5", "Currency")
	sw.setCell(f, sheet, "B5", doc.Currency)
	sw.setCell(f, sheet, "A6", "Date")
	sw.setCell(f, sheet, "B6", doc.CreatedAt.Format("2006-01-02"))

	// Item table header
	headerRow := 8
	headers := []string{"Description", "Quantity", "Rate", "Discount", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		sw.setCell(f, sheet, cell, h)
	}

	row := headerRow + 1
	for _, item := range items {
		desc := item.Description
		if item.Credit {
			desc += " (credit)"
		}
		sw.setCell(f, sheet, fmt.Sprintf("A%d", row), desc)
		sw.setCell(f, sheet, fmt.Sprintf("B%d", row), item.Quantity)
		sw.setCell(f, sheet, fmt.Sprintf("C%d", row), item.Rate)
		sw.setCell(f, sheet, fmt.Sprintf("D%d", row), item.Discount)
		sw.setCell(f, sheet, fmt.Sprintf("E%d", row), item.Amount)
		row++
	}

	totals := billing.ComputeFromSubtotal(doc.Subtotal,
		billing.DiscountSpec{Percent: doc.DiscountPercent, Amount: doc.DiscountAmount},
		billing.TaxSpec{Rate: doc.TaxRate, Inclusive: doc.TaxInclusive})

	row++
	sw.setCell(f, sheet, fmt.Sprintf("D%d", row), "Subtotal")
	sw.setCell(f, sheet, fmt.Sprintf("E%d", row), doc.Subtotal)
	row++
	if doc.DiscountPercent > 0 {
		sw.setCell(f, sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("Discount (%.1f%%)", doc.DiscountPercent))
		sw.setCell(f, sheet, fmt.Sprintf("E%d", row), totals.DiscountValue)
		row++
	} else if doc.DiscountAmount > 0 {
		sw.setCell(f, sheet, fmt.Sprintf("D%d", row), "Discount")
		sw.setCell(f, sheet, fmt.Sprintf("E%d", row), totals.DiscountValue)
		row++
	}
	if doc.TaxRate > 0 {
		label := fmt.Sprintf("Tax (%.1f%%)", doc.TaxRate)
		if doc.TaxInclusive {
			label += " incl."
		}
		sw.setCell(f, sheet, fmt.Sprintf("D%d", row), label)
		sw.setCell(f, sheet, fmt.Sprintf("E%d", row), totals.TaxAmount)
		row++
	}
	sw.setCell(f, sheet, fmt.Sprintf("D%d", row), "Total")
	sw.setCell(f, sheet, fmt.Sprintf("E%d", row), doc.Amount)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}

	sw.logger.Info("Statement exported",
		zap.String("number", doc.Number),
		zap.Int("items", len(items)))
	return nil
}

func (sw *StatementWriter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		sw.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func docTitle(kind entity.DocumentKind) string {
	if kind == entity.KindBill {
		return "Bill"
	}
	return "Proposal"
}
