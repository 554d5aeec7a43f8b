// Package export renders the equipment catalog as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"alugserv/internal/domain"
)

const sheet = "Catalog"

var header = []any{
	"ID", "Name", "Slug", "Category", "SKU", "Brand", "Model",
	"Price", "Price type", "Stock", "Status", "Featured", "Views", "Specs", "Created at",
}

// WriteCatalog writes one header row plus one row per equipment to w as xlsx.
func WriteCatalog(w io.Writer, items []domain.Equipment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	for i, e := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := row(e)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func row(e domain.Equipment) []any {
	var category, price any = "", ""
	if e.CategoryName != nil {
		category = *e.CategoryName
	}
	if e.Price != nil {
		price = *e.Price
	}
	specs := make([]string, 0, len(e.Specs))
	for _, s := range e.Specs {
		specs = append(specs, s.Name+": "+s.Value)
	}
	featured := "no"
	if e.Featured {
		featured = "yes"
	}
	return []any{
		e.ID, e.Name, e.Slug, category, e.SKU, e.Brand, e.Model,
		price, e.PriceType, e.StockStatus, e.Status, featured, e.Views,
		strings.Join(specs, "; "), e.CreatedAt,
	}
}
