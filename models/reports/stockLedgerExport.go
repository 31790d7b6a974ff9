package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportStockLedgerXlsx writes the filtered movement ledger as an xlsx
// workbook to w.
func ExportStockLedgerXlsx(ctx context.Context, filter *models.MovementFilter, w io.Writer) error {

	// export everything the filter matches
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	movements, _, err := models.GetStockMovements(ctx, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "Date")
	f.SetCellValue(sheet, "B1", "ProductId")
	f.SetCellValue(sheet, "C1", "BranchId")
	f.SetCellValue(sheet, "D1", "Type")
	f.SetCellValue(sheet, "E1", "Reason")
	f.SetCellValue(sheet, "F1", "Quantity")
	f.SetCellValue(sheet, "G1", "PreviousStock")
	f.SetCellValue(sheet, "H1", "NewStock")
	f.SetCellValue(sheet, "I1", "UnitCost")
	f.SetCellValue(sheet, "J1", "TotalCost")
	f.SetCellValue(sheet, "K1", "Reference")
	f.SetCellValue(sheet, "L1", "User")

	// Add data
	for i, m := range movements {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, m.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, "B"+row, m.ProductId)
		f.SetCellValue(sheet, "C"+row, m.BranchId)
		f.SetCellValue(sheet, "D"+row, string(m.Type))
		f.SetCellValue(sheet, "E"+row, string(m.Reason))
		f.SetCellValue(sheet, "F"+row, m.Quantity.String())
		f.SetCellValue(sheet, "G"+row, m.PreviousStock.String())
		f.SetCellValue(sheet, "H"+row, m.NewStock.String())
		f.SetCellValue(sheet, "I"+row, m.UnitCost.String())
		f.SetCellValue(sheet, "J"+row, m.TotalCost.String())
		f.SetCellValue(sheet, "K"+row, fmt.Sprintf("%s#%d", m.ReferenceType, m.ReferenceId))
		f.SetCellValue(sheet, "L"+row, m.UserName)
	}

	return f.Write(w)
}
