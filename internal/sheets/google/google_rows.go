package google

import (
	"fmt"
	"strings"

	"ledger/internal/core"
)

var historyHeader = []any{"Дата", "Тип", "Категория", "Сумма", "Описание", "ID"}

// historyRows converts records into the values matrix written to a tab.
// The first row carries the currency next to the title.
func historyRows(currency string, records []core.Transaction) [][]any {
	if currency == "" {
		currency = core.DefaultCurrency
	}
	values := make([][]any, 0, len(records)+2)
	values = append(values, []any{"ИСТОРИЯ ОПЕРАЦИЙ", "Валюта: " + currency})
	values = append(values, historyHeader)
	for _, r := range records {
		values = append(values, []any{
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			r.Type.Label(),
			r.Category,
			r.Amount,
			r.Description,
			r.ID,
		})
	}
	return values
}

// userSheetName returns "<base> <userID>".
func userSheetName(base string, userID int64) string {
	return fmt.Sprintf("%s %d", strings.TrimSpace(base), userID)
}

// a1Range builds "'<sheet>'!<cells>", doubling quotes in the sheet name.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
