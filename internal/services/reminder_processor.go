package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

// DefaultReminderLead is how many days ahead of a payment the reminder
// goes out.
const DefaultReminderLead = 3

// ReminderStore is the storage the processor walks.
type ReminderStore interface {
	ListDueSubscriptions(ctx context.Context, through core.Date) ([]core.Subscription, error)
	AdvanceSubscription(ctx context.Context, id int64, next core.Date) error
}

// Notifier delivers a text to a user's private chat; *telegram.Bot
// satisfies it.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ReminderReport summarises one ProcessDue run.
type ReminderReport struct {
	TargetDate core.Date `json:"target_date"`
	Processed  int       `json:"processed"`
	Notified   int       `json:"notified"`
	Errors     int       `json:"errors"`
}

// ReminderProcessor sends payment reminders for subscriptions and moves
// each one to its next billing date.
type ReminderProcessor struct {
	store    ReminderStore
	notifier Notifier
	leadDays int
}

func NewReminderProcessor(store ReminderStore, notifier Notifier, leadDays int) *ReminderProcessor {
	if leadDays < 0 {
		leadDays = DefaultReminderLead
	}
	return &ReminderProcessor{store: store, notifier: notifier, leadDays: leadDays}
}

// ProcessDue handles every subscription whose stored payment date is on or
// before today plus the lead. A subscription left behind while the
// processor was down is first rolled past the payments already missed; the
// reminder then names the next upcoming one. After a successful reminder
// the stored date moves past the window, so each payment is announced
// once. A failed delivery leaves the date alone and the next run retries.
func (p *ReminderProcessor) ProcessDue(ctx context.Context, now time.Time) (ReminderReport, error) {
	if p.store == nil || p.notifier == nil {
		return ReminderReport{}, fmt.Errorf("reminder processor not properly initialized")
	}

	today := core.DateOf(now)
	report := ReminderReport{TargetDate: today.AddDays(p.leadDays)}

	subs, err := p.store.ListDueSubscriptions(ctx, report.TargetDate)
	if err != nil {
		return report, fmt.Errorf("list due subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing subscription reminders",
		applog.FieldComponent, applog.ComponentReminder,
		"due", len(subs),
		"target_date", report.TargetDate.String())

	for _, sub := range subs {
		report.Processed++
		notified, err := p.remind(ctx, sub, today, report.TargetDate)
		if notified {
			report.Notified++
		}
		if err != nil {
			report.Errors++
			slog.ErrorContext(ctx, "Failed to process subscription reminder",
				applog.FieldComponent, applog.ComponentReminder,
				applog.FieldOperation, applog.OpRemind,
				applog.FieldSubscription, sub.ID,
				applog.FieldUserID, sub.UserID,
				applog.FieldError, err)
		}
	}

	slog.InfoContext(ctx, "Subscription reminders complete",
		applog.FieldComponent, applog.ComponentReminder,
		"processed", report.Processed,
		"notified", report.Notified,
		"errors", report.Errors)
	return report, nil
}

func (p *ReminderProcessor) remind(ctx context.Context, sub core.Subscription, today, target core.Date) (bool, error) {
	cycle, err := GetBillingCycle(sub.Period)
	if err != nil {
		return false, err
	}

	payment := sub.NextDate
	for payment.Before(today.Time) {
		payment = cycle.Next(payment)
	}

	notified := false
	if !payment.After(target.Time) {
		days := int(payment.Sub(today.Time).Hours() / 24)
		if err := p.notifier.SendMessage(ctx, sub.UserID, ReminderText(sub, days)); err != nil {
			return false, fmt.Errorf("notify user %d: %w", sub.UserID, err)
		}
		notified = true
	}

	next := payment
	for !next.After(target.Time) {
		next = cycle.Next(next)
	}
	if err := p.store.AdvanceSubscription(ctx, sub.ID, next); err != nil {
		return notified, fmt.Errorf("advance to %s: %w", next, err)
	}
	slog.InfoContext(ctx, "Subscription advanced",
		applog.FieldComponent, applog.ComponentReminder,
		applog.FieldSubscription, sub.ID,
		"next_date", next.String(),
		"notified", notified)
	return notified, nil
}

// ReminderText is the Telegram message announcing a payment due in days.
func ReminderText(sub core.Subscription, days int) string {
	when := "Сегодня"
	if days > 0 {
		when = "Через " + strconv.Itoa(days) + " " + pluralDays(days)
	}
	return "🔔 Напоминание!\n" +
		when + " оплата подписки: " + sub.Name + "\n" +
		"Сумма: " + strconv.FormatFloat(sub.Amount, 'f', -1, 64) + " " + sub.Currency
}

func pluralDays(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return "дней"
	case n%10 == 1:
		return "день"
	case n%10 >= 2 && n%10 <= 4:
		return "дня"
	}
	return "дней"
}
