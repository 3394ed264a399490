// Package export writes shopping lists as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"recipebook/internal/domain"
)

// ContentType is the media type of the files written by ShoppingListXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheet = "Sheet1"

// ShoppingListXLSX writes the items still to buy for a recipe as a workbook
// with one row per ingredient. The recipe name goes in the title row when
// known.
func ShoppingListXLSX(w io.Writer, recipeName string, items []domain.ShoppingListItem) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	title := "Shopping list"
	if recipeName != "" {
		title += ": " + recipeName
	}
	if err := sw.SetRow("A1", []any{title}); err != nil {
		return err
	}
	if err := sw.SetRow("A2", []any{"Ingredient", "Quantity", "Unit", "Notes"}); err != nil {
		return err
	}
	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{it.Name, it.Quantity, it.Unit, it.Notes}); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename is the download name for a recipe's shopping list.
func Filename(recipeID int64) string {
	return "shopping-list-" + strconv.FormatInt(recipeID, 10) + ".xlsx"
}
