package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	DateLayout = "2006-01-02"

	MaxSubscriptionName = 100
)

// AllowedCurrencies lists the display and billing currencies, sorted.
var AllowedCurrencies = []string{"EUR", "RUB", "USD"}

type (
	// Frequency is how often a subscription bills.
	Frequency string

	// Date is a calendar day at UTC midnight. It travels as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Subscription is a recurring payment the user wants a reminder for.
	Subscription struct {
		ID       int64     `json:"id"`
		UserID   int64     `json:"user_id"`
		Name     string    `json:"name"`
		Amount   float64   `json:"amount"`
		Currency string    `json:"currency"`
		Period   Frequency `json:"period"`
		NextDate Date      `json:"next_date"`
	}
)

var (
	ErrEmptyName        = errors.New("name must be a non-empty string")
	ErrNegativeAmount   = errors.New("amount must be >= 0")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidFrequency = errors.New("invalid period")
)

// FrequencyNames lists the accepted frequencies, sorted.
func FrequencyNames() []string {
	return []string{string(Daily), string(Monthly), string(Weekly), string(Yearly)}
}

// ParseFrequency accepts any casing.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return f, nil
	}
	return "", ErrInvalidFrequency
}

// ParseCurrency upper-cases s and checks it against AllowedCurrencies.
func ParseCurrency(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	for _, allowed := range AllowedCurrencies {
		if c == allowed {
			return c, nil
		}
	}
	return "", ErrInvalidCurrency
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Date, error) {
	t, err := ParseDate(s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// AddMonths moves the date by n months, clamping the day to the last day
// of the target month: Jan 31 + 1 month is Feb 28 (or 29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (s Subscription) Validate() error {
	if s.UserID <= 0 {
		return ErrInvalidUser
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len([]rune(s.Name)) > MaxSubscriptionName {
		return fmt.Errorf("name too long (max %d characters)", MaxSubscriptionName)
	}
	if math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) {
		return errors.New("amount must be numeric")
	}
	if s.Amount < 0 {
		return ErrNegativeAmount
	}
	if _, err := ParseCurrency(s.Currency); err != nil {
		return err
	}
	if _, err := ParseFrequency(string(s.Period)); err != nil {
		return err
	}
	if s.NextDate.IsZero() {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	return nil
}
