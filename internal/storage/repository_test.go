package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

	older, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 7, Description: "еда 300", Amount: 300,
		Type: core.Expense, Category: core.CategoryFood, CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if older.ID == 0 || !older.CreatedAt.Equal(base) {
		t.Fatalf("unexpected row: %+v", older)
	}

	newer, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 7, Description: "зп 50000", Amount: 50000,
		Type: core.Income, Category: core.CategoryIncome, CreatedAt: base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 8, Description: "такси 450", Amount: 450,
		Type: core.Expense, Category: core.CategoryTransport,
	}); err != nil {
		t.Fatalf("create other user: %v", err)
	}

	list, err := repo.ListTransactions(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list))
	}
	if list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("expected newest first, got %d then %d", list[0].ID, list[1].ID)
	}
	if list[0].Type != core.Income || list[0].Category != core.CategoryIncome {
		t.Fatalf("unexpected fields: %+v", list[0])
	}

	users, err := repo.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0] != 7 || users[1] != 8 {
		t.Fatalf("unexpected users: %v", users)
	}
}

func TestSQLiteRepository_DeleteChecksOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 1, Description: "кофе 250", Amount: 250,
		Type: core.Expense, Category: core.CategoryOther,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, 2, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, 1, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, 1, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.GetTransaction(ctx, 1, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on get, got %v", err)
	}
}

func TestSQLiteRepository_Currency(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if c, err := repo.Currency(ctx, 1); err != nil || c != core.DefaultCurrency {
		t.Fatalf("expected default currency, got %q (%v)", c, err)
	}
	if err := repo.SetCurrency(ctx, 1, "eur"); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if c, _ := repo.Currency(ctx, 1); c != "EUR" {
		t.Fatalf("expected EUR, got %q", c)
	}
	if err := repo.SetCurrency(ctx, 1, "euro"); err == nil {
		t.Fatal("expected error for invalid currency")
	}
}

func TestSQLiteRepository_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateTransaction(context.Background(), core.Transaction{UserID: 1, Description: "x", Amount: 0, Type: core.Expense, Category: "a"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

func TestSQLiteRepository_Subscriptions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	add := func(userID int64, name string, next core.Date) core.Subscription {
		t.Helper()
		sub, err := repo.CreateSubscription(ctx, core.Subscription{
			UserID: userID, Name: name, Amount: 299.5, Currency: "RUB",
			Period: core.Monthly, NextDate: next,
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return sub
	}
	late := add(7, "Яндекс Плюс", core.NewDate(2025, time.April, 1))
	early := add(7, "Netflix", core.NewDate(2025, time.March, 4))
	other := add(8, "Spotify", core.NewDate(2025, time.March, 1))

	list, err := repo.ListSubscriptions(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != early.ID || list[1].ID != late.ID {
		t.Fatalf("expected soonest first, got %+v", list)
	}
	if list[0].Amount != 299.5 || list[0].NextDate.String() != "2025-03-04" {
		t.Fatalf("fields not round-tripped: %+v", list[0])
	}

	due, err := repo.ListDueSubscriptions(ctx, core.NewDate(2025, time.March, 4))
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != other.ID || due[1].ID != early.ID {
		t.Fatalf("due = %+v", due)
	}

	if err := repo.AdvanceSubscription(ctx, early.ID, core.NewDate(2025, time.April, 4)); err != nil {
		t.Fatal(err)
	}
	if err := repo.AdvanceSubscription(ctx, 999, core.NewDate(2025, time.April, 4)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if due, _ := repo.ListDueSubscriptions(ctx, core.NewDate(2025, time.March, 4)); len(due) != 1 {
		t.Fatalf("advanced subscription still due: %+v", due)
	}

	if err := repo.DeleteSubscription(ctx, 8, late.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := repo.DeleteSubscription(ctx, 7, late.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if list, _ := repo.ListSubscriptions(ctx, 7); len(list) != 1 {
		t.Fatalf("expected one left, got %d", len(list))
	}
}

func TestSQLiteRepository_QuickButtons(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	buttons, err := repo.QuickButtons(ctx, 7)
	if err != nil || buttons == nil || len(buttons) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v (%v)", buttons, err)
	}
	if err := repo.SetQuickButtons(ctx, 7, []string{"кофе 250", "такси 450"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetQuickButtons(ctx, 7, []string{"обед 500"}); err != nil {
		t.Fatal(err)
	}
	buttons, err = repo.QuickButtons(ctx, 7)
	if err != nil || len(buttons) != 1 || buttons[0] != "обед 500" {
		t.Fatalf("got %#v (%v)", buttons, err)
	}
}
