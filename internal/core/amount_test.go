package core

import (
	"errors"
	"testing"
)

func TestExtractAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"кофе 250", 250, nil},
		{"1 500 обед", 1500, nil},
		{"такси 3 и 50", 350, nil},
		{"10000000", MaxAmount, nil},
		{"10000001", 0, ErrInvalidAmount},
		{"123456789", 0, ErrInvalidAmount},
		{"0", 0, ErrInvalidAmount},
		{"000", 0, ErrInvalidAmount},
		{"000000000150", 150, nil},
		{"кофе 0250", 250, nil},
		{"0000000010000001", 0, ErrInvalidAmount},
		{"без суммы", 0, ErrAmountNotFound},
		{"", 0, ErrAmountNotFound},
	}
	for _, tc := range cases {
		got, err := ExtractAmount(tc.in)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q expected err %v, got %v", tc.in, tc.err, err)
		}
		if got != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got)
		}
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		text     string
		forced   TransactionType
		wantType TransactionType
		wantCat  string
	}{
		{"Зарплата 50000", "", Income, CategoryIncome},
		{"зп 30000", "", Income, CategoryIncome},
		{"аванс 10000", "", Income, CategoryIncome},
		{"еда 300", "", Expense, CategoryFood},
		{"ТАКСИ 450", "", Expense, CategoryTransport},
		{"подарок 1000", "", Expense, CategoryOther},
		{"подарок 1000", Income, Income, CategoryIncome},
		{"еда 300", Expense, Expense, CategoryFood},
		{"зпк 100", "", Expense, CategoryOther},
	}
	for _, tc := range cases {
		typ, cat := Categorize(tc.text, tc.forced)
		if typ != tc.wantType || cat != tc.wantCat {
			t.Errorf("Categorize(%q, %q) = %s/%s, want %s/%s", tc.text, tc.forced, typ, cat, tc.wantType, tc.wantCat)
		}
	}
}
