package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Default categories assigned by Categorize.
const (
	CategoryIncome    = "Доход"
	CategoryFood      = "Еда"
	CategoryTransport = "Транспорт"
	CategoryOther     = "Разное"
)

const (
	DefaultCurrency      = "RUB"
	MaxDescriptionLength = 200
)

type (
	TransactionType string

	// Transaction is one history row: an income or an expense.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"-"`
		Description string          `json:"description"`
		Amount      int64           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		CreatedAt   time.Time       `json:"created_at"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountNotFound   = errors.New("amount not found")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidUser      = errors.New("invalid user")
)

// IsValid reports whether t is income or expense.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Label is the Russian name used in reports.
func (t TransactionType) Label() string {
	if t == Income {
		return "Доход"
	}
	return "Расход"
}

// RowID is the opaque identifier a list row uses for this transaction.
func (t Transaction) RowID() string {
	return strconv.FormatInt(t.ID, 10)
}

// Signed returns the amount with the sign it contributes to the balance.
func (t Transaction) Signed() int64 {
	if t.Type == Income {
		return t.Amount
	}
	return -t.Amount
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return ErrInvalidUser
	}
	if t.Amount <= 0 || t.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.New("date must be in YYYY-MM-DD format")
	}
	return d, nil
}
