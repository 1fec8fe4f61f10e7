package core

import "time"

// HistoryLimit caps how many rows a stats response carries.
const HistoryLimit = 20

// PeriodTotals is income and expense inside the selected period.
type PeriodTotals struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
}

// Chart holds expense totals per category, in order of first appearance.
type Chart struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// Stats is the dashboard summary of one user's history.
type Stats struct {
	Currency     string        `json:"currency"`
	TotalBalance int64         `json:"total_balance"`
	Period       PeriodTotals  `json:"period"`
	Chart        Chart         `json:"chart"`
	History      []Transaction `json:"history"`
}

// Summarize builds Stats from records sorted newest first. The balance
// covers every record; totals, chart and history only the period.
func Summarize(records []Transaction, currency string, period Period, now time.Time) Stats {
	if currency == "" {
		currency = DefaultCurrency
	}
	s := Stats{
		Currency: currency,
		Chart:    Chart{Labels: []string{}, Data: []int64{}},
		History:  []Transaction{},
	}

	index := make(map[string]int)
	for _, r := range records {
		s.TotalBalance += r.Signed()
		if !period.Contains(r.CreatedAt, now) {
			continue
		}
		if len(s.History) < HistoryLimit {
			s.History = append(s.History, r)
		}
		if r.Type == Income {
			s.Period.Income += r.Amount
			continue
		}
		s.Period.Expense += r.Amount
		cat := r.Category
		if cat == "" {
			cat = CategoryOther
		}
		i, ok := index[cat]
		if !ok {
			i = len(s.Chart.Labels)
			index[cat] = i
			s.Chart.Labels = append(s.Chart.Labels, cat)
			s.Chart.Data = append(s.Chart.Data, 0)
		}
		s.Chart.Data[i] += r.Amount
	}
	return s
}
