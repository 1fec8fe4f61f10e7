package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newTestService(t *testing.T) (*TransactionService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub, cache.NewLRUCache[core.Stats](16, time.Minute))
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store, pub
}

func TestTransactionService_Create(t *testing.T) {
	tests := []struct {
		name     string
		req      CreateRequest
		wantType core.TransactionType
		wantCat  string
		wantAmt  int64
		wantErr  string
	}{
		{name: "expense food", req: CreateRequest{Text: "еда 300"}, wantType: core.Expense, wantCat: core.CategoryFood, wantAmt: 300},
		{name: "salary keyword", req: CreateRequest{Text: "зарплата 50000"}, wantType: core.Income, wantCat: core.CategoryIncome, wantAmt: 50000},
		{name: "forced income", req: CreateRequest{Text: "подарок 1000", Type: "income"}, wantType: core.Income, wantCat: core.CategoryIncome, wantAmt: 1000},
		{name: "no amount", req: CreateRequest{Text: "кофе"}, wantErr: "Amount not found"},
		{name: "too large", req: CreateRequest{Text: "машина 99999999"}, wantErr: "Amount must be between"},
		{name: "bad type", req: CreateRequest{Text: "кофе 1", Type: "gift"}, wantErr: "type must be"},
		{name: "bad date", req: CreateRequest{Text: "кофе 1", Date: "15.03.2025"}, wantErr: "YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, pub := newTestService(t)
			got, err := svc.Create(context.Background(), 1, tt.req)

			if tt.wantErr != "" {
				var inErr *InputError
				if !errors.As(err, &inErr) {
					t.Fatalf("expected InputError, got %v", err)
				}
				if !strings.Contains(inErr.Msg, tt.wantErr) {
					t.Fatalf("message %q does not contain %q", inErr.Msg, tt.wantErr)
				}
				if len(pub.events) != 0 {
					t.Fatal("no event expected on invalid input")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.wantType || got.Category != tt.wantCat || got.Amount != tt.wantAmt {
				t.Fatalf("got %+v", got)
			}
			if len(pub.events) != 1 || pub.events[0].Event != amqp.EventTransactionCreated || pub.events[0].TransactionID != got.ID {
				t.Fatalf("unexpected events: %+v", pub.events)
			}
		})
	}
}

func TestTransactionService_CreateWithDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	got, err := svc.Create(context.Background(), 1, CreateRequest{Text: "такси 450", Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CreatedAt.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, store, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.Create(context.Background(), 1, CreateRequest{Text: "еда 100"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, _ := store.ListTransactions(context.Background(), 1)
	if len(list) != 1 {
		t.Fatalf("expected saved row, got %d", len(list))
	}
}

func TestTransactionService_Delete(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()
	tx, _ := svc.Create(ctx, 1, CreateRequest{Text: "еда 300"})

	if err := svc.Delete(ctx, 2, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if err := svc.Delete(ctx, 1, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, 1, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat, got %v", err)
	}
	var inErr *InputError
	if err := svc.Delete(ctx, 1, 0); !errors.As(err, &inErr) {
		t.Fatalf("expected InputError for zero id, got %v", err)
	}

	last := pub.events[len(pub.events)-1]
	if last.Event != amqp.EventTransactionDeleted || last.TransactionID != tx.ID {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestTransactionService_StatsCacheInvalidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tx, _ := svc.Create(ctx, 1, CreateRequest{Text: "еда 300"})
	first, err := svc.Stats(ctx, 1, core.PeriodAll)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if first.TotalBalance != -300 || len(first.History) != 1 {
		t.Fatalf("unexpected stats: %+v", first)
	}

	if err := svc.Delete(ctx, 1, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	second, _ := svc.Stats(ctx, 1, core.PeriodAll)
	if second.TotalBalance != 0 || len(second.History) != 0 {
		t.Fatalf("stale stats after delete: %+v", second)
	}
}

func TestTransactionService_StatsServedFromCache(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	svc.Create(ctx, 1, CreateRequest{Text: "еда 300"})
	svc.Stats(ctx, 1, core.PeriodDay)

	// Bypass the service so the cache is not invalidated.
	store.CreateTransaction(ctx, core.Transaction{UserID: 1, Description: "еда 1", Amount: 1, Type: core.Expense, Category: core.CategoryFood})

	cached, _ := svc.Stats(ctx, 1, core.PeriodDay)
	if cached.Period.Expense != 300 {
		t.Fatalf("expected cached expense 300, got %d", cached.Period.Expense)
	}
}

func TestExportCSV(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	svc.Create(ctx, 1, CreateRequest{Text: "зп 1000"})
	svc.Create(ctx, 1, CreateRequest{Text: "еда; обед 300"})

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, 1, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatal("missing BOM")
	}
	for _, want := range []string{
		"ОТЧЕТ О ФИНАНСАХ;Валюта: RUB",
		"ТЕКУЩИЙ БАЛАНС;700",
		"2025-03-15;Расход;Еда;300;\"еда; обед 300\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}

func TestTransactionService_Close(t *testing.T) {
	svc, _, pub := newTestService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatal("publisher not closed")
	}

	bare := NewTransactionService(nil, nil, nil)
	if err := bare.Close(); err != nil {
		t.Fatalf("close with nil components: %v", err)
	}
}
