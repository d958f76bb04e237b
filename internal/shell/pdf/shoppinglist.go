// Package pdf renders shopping lists as PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/foodgram/foodgram/internal/core/shopping"
)

// ShoppingList renders aggregated cart ingredients as a single-column PDF.
func ShoppingList(items []shopping.Item, generatedAt time.Time) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Shopping list", true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 12, "Shopping list")
	doc.Ln(14)

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(110, 110, 110)
	doc.Cell(0, 6, generatedAt.Format("2006-01-02 15:04"))
	doc.Ln(10)
	doc.SetTextColor(0, 0, 0)

	doc.SetFont("Helvetica", "", 12)
	if len(items) == 0 {
		doc.Cell(0, 8, "The shopping cart is empty.")
	}
	for i, item := range items {
		line := fmt.Sprintf("%d. %s (%s) - %d", i+1, item.Name, item.MeasurementUnit, item.Amount)
		doc.Cell(0, 8, line)
		doc.Ln(8)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render shopping list: %w", err)
	}
	return buf.Bytes(), nil
}
