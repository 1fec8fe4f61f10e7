package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

func TestSubscriptionService_Add(t *testing.T) {
	valid := AddSubscriptionRequest{Name: " Netflix ", Amount: 799, Date: "2025-03-10", Period: "Monthly"}
	tests := []struct {
		name    string
		mutate  func(r *AddSubscriptionRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(*AddSubscriptionRequest) {}},
		{name: "currency upper-cased", mutate: func(r *AddSubscriptionRequest) { r.Currency = "eur" }},
		{name: "blank name", mutate: func(r *AddSubscriptionRequest) { r.Name = " " }, wantErr: "name must be a non-empty string"},
		{name: "negative", mutate: func(r *AddSubscriptionRequest) { r.Amount = -1 }, wantErr: "amount must be >= 0"},
		{name: "nan", mutate: func(r *AddSubscriptionRequest) { r.Amount = math.NaN() }, wantErr: "amount must be numeric"},
		{name: "currency", mutate: func(r *AddSubscriptionRequest) { r.Currency = "GBP" }, wantErr: "Invalid currency. Allowed: EUR, RUB, USD"},
		{name: "date", mutate: func(r *AddSubscriptionRequest) { r.Date = "10.03.2025" }, wantErr: "date must be in YYYY-MM-DD format"},
		{name: "period", mutate: func(r *AddSubscriptionRequest) { r.Period = "hourly" }, wantErr: "Invalid period. Allowed: daily, monthly, weekly, yearly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSubscriptionService(memory.New())
			req := valid
			tt.mutate(&req)

			got, err := svc.Add(context.Background(), 7, req)
			if tt.wantErr != "" {
				var inErr *InputError
				if !errors.As(err, &inErr) || inErr.Msg != tt.wantErr {
					t.Fatalf("got %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.ID == 0 || got.Name != "Netflix" || got.Period != core.Monthly || got.NextDate.String() != "2025-03-10" {
				t.Fatalf("unexpected subscription: %+v", got)
			}
			if req.Currency == "" && got.Currency != "RUB" {
				t.Fatalf("default currency = %s", got.Currency)
			}
			if req.Currency == "eur" && got.Currency != "EUR" {
				t.Fatalf("currency = %s", got.Currency)
			}
		})
	}
}

func TestSubscriptionService_ListAndDelete(t *testing.T) {
	svc := NewSubscriptionService(memory.New())
	ctx := context.Background()

	empty, err := svc.List(ctx, 7)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %#v (%v)", empty, err)
	}

	later, _ := svc.Add(ctx, 7, AddSubscriptionRequest{Name: "B", Amount: 1, Date: "2025-05-01", Period: "yearly"})
	sooner, _ := svc.Add(ctx, 7, AddSubscriptionRequest{Name: "A", Amount: 1, Date: "2025-04-01", Period: "weekly"})
	list, _ := svc.List(ctx, 7)
	if len(list) != 2 || list[0].ID != sooner.ID || list[1].ID != later.ID {
		t.Fatalf("list = %+v", list)
	}

	var inErr *InputError
	if err := svc.Delete(ctx, 7, 0); !errors.As(err, &inErr) || inErr.Msg != "Missing id" {
		t.Fatalf("zero id: %v", err)
	}
	if err := svc.Delete(ctx, 8, sooner.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := svc.Delete(ctx, 7, sooner.ID); err != nil {
		t.Fatal(err)
	}
	if list, _ := svc.List(ctx, 7); len(list) != 1 {
		t.Fatalf("expected one left, got %d", len(list))
	}
}
