package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// HistoryWriter replaces the mirrored history of one user with
	// records, newest first.
	HistoryWriter interface {
		WriteHistory(ctx context.Context, userID int64, currency string, records []core.Transaction) error
	}
)
