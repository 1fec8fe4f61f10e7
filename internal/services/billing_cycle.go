// This file implements the per-frequency strategies that move a
// subscription's next payment date forward.

package services

import (
	"fmt"

	"ledger/internal/core"
)

// BillingCycle computes the payment that follows a given one. Each
// frequency has its own implementation.
type BillingCycle interface {
	Next(payment core.Date) core.Date
}

type DailyCycle struct{}

func (DailyCycle) Next(d core.Date) core.Date { return d.AddDays(1) }

type WeeklyCycle struct{}

func (WeeklyCycle) Next(d core.Date) core.Date { return d.AddDays(7) }

// MonthlyCycle keeps the day of month where it exists and clamps to the
// last day otherwise, so a subscription started on the 31st bills on
// Feb 28 and then on Mar 28.
type MonthlyCycle struct{}

func (MonthlyCycle) Next(d core.Date) core.Date { return d.AddMonths(1) }

// YearlyCycle moves a Feb 29 payment to Feb 28 in common years.
type YearlyCycle struct{}

func (YearlyCycle) Next(d core.Date) core.Date { return d.AddMonths(12) }

var billingCycles = map[core.Frequency]BillingCycle{
	core.Daily:   DailyCycle{},
	core.Weekly:  WeeklyCycle{},
	core.Monthly: MonthlyCycle{},
	core.Yearly:  YearlyCycle{},
}

// GetBillingCycle returns the strategy for frequency.
func GetBillingCycle(frequency core.Frequency) (BillingCycle, error) {
	cycle, ok := billingCycles[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown billing frequency: %s", frequency)
	}
	return cycle, nil
}

// RegisterBillingCycle adds or replaces the strategy for frequency.
// Call it during initialization only.
func RegisterBillingCycle(frequency core.Frequency, cycle BillingCycle) {
	billingCycles[frequency] = cycle
}
