// Package core provides amount extraction and categorisation for
// free-text transaction entry.
//
// A quick entry such as "такси 450" carries both the amount and enough
// words to pick a category; this file turns that text into the fields of
// a Transaction.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// MaxAmount is the largest amount a single transaction may carry.
const MaxAmount int64 = 10_000_000

// ExtractAmount collects every digit in text into one whole amount.
//
// Examples:
//	ExtractAmount("кофе 250") -> 250, nil
//	ExtractAmount("1 500 обед") -> 1500, nil
//	ExtractAmount("без суммы") -> 0, ErrAmountNotFound
func ExtractAmount(text string) (int64, error) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, ErrAmountNotFound
	}
	significant := strings.TrimLeft(digits.String(), "0")
	// More than 8 significant digits is always over MaxAmount.
	if significant == "" || len(significant) > 8 {
		return 0, ErrInvalidAmount
	}
	amount, err := strconv.ParseInt(significant, 10, 64)
	if err != nil || amount <= 0 || amount > MaxAmount {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

var incomeWords = []string{"зарплата", "зп", "аванс"}

// Categorize picks the type and category of a free-text entry. A forced
// income type wins over the keywords.
func Categorize(text string, forced TransactionType) (TransactionType, string) {
	lower := strings.ToLower(text)

	if forced == Income {
		return Income, CategoryIncome
	}
	for _, w := range incomeWords {
		if containsWord(lower, w) {
			return Income, CategoryIncome
		}
	}
	switch {
	case strings.Contains(lower, "еда"):
		return Expense, CategoryFood
	case strings.Contains(lower, "такси"):
		return Expense, CategoryTransport
	}
	return Expense, CategoryOther
}

// containsWord matches short keywords like "зп" on word boundaries so
// they do not fire inside unrelated words; longer ones match anywhere.
func containsWord(text, word string) bool {
	if len([]rune(word)) > 3 {
		return strings.Contains(text, word)
	}
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if field == word {
			return true
		}
	}
	return false
}
