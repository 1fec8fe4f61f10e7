package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ledger/internal/core"
)

// utf8BOM lets spreadsheet apps detect the encoding of Cyrillic text.
const utf8BOM = "\uFEFF"

// ExportCSV writes the user's report: a summary block followed by the full
// history. Fields are separated by ';'.
func (s *TransactionService) ExportCSV(ctx context.Context, userID int64, w io.Writer) error {
	records, err := s.History(ctx, userID)
	if err != nil {
		return err
	}
	currency, err := s.store.Currency(ctx, userID)
	if err != nil {
		return fmt.Errorf("load currency: %w", err)
	}
	return WriteReport(w, records, currency)
}

// WriteReport renders records as the CSV report.
func WriteReport(w io.Writer, records []core.Transaction, currency string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	var income, expense int64
	for _, r := range records {
		if r.Type == core.Income {
			income += r.Amount
		} else {
			expense += r.Amount
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	rows := [][]string{
		{"ОТЧЕТ О ФИНАНСАХ", "Валюта: " + currency},
		{"Общий Доход", strconv.FormatInt(income, 10)},
		{"Общий Расход", strconv.FormatInt(expense, 10)},
		{"ТЕКУЩИЙ БАЛАНС", strconv.FormatInt(income-expense, 10)},
		{},
		{"ИСТОРИЯ ОПЕРАЦИЙ"},
		{"Дата", "Тип", "Категория", "Сумма", "Описание"},
	}
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.UTC().Format("2006-01-02"),
			r.Type.Label(),
			r.Category,
			strconv.FormatInt(r.Amount, 10),
			r.Description,
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
