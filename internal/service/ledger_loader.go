package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/ledger"
	"github.com/portyard/port-ticket-service/internal/observability"
	"github.com/portyard/port-ticket-service/internal/repository"
)

var slotHoldingStates = []domain.TicketState{
	domain.TicketStateValidated,
	domain.TicketStateInProgress,
	domain.TicketStateCompleted,
}

// LoadLedger builds the process-wide slot ledger from the slot list and the
// tickets currently holding a slot. Availability changes are written back
// through slots.
func LoadLedger(ctx context.Context, slots repository.SlotRepository, tickets repository.TicketRepository, metrics *observability.Metrics, logger *zap.Logger) (*ledger.Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	all, err := slots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	holders, err := tickets.List(ctx, repository.TicketFilter{States: slotHoldingStates})
	if err != nil {
		return nil, fmt.Errorf("list slot holders: %w", err)
	}

	l := ledger.Rebuild(all, holders,
		ledger.WithStore(slots),
		ledger.WithLogger(logger),
		ledger.WithObserver(metrics.SetSlotsAvailable),
	)
	for _, z := range l.Summary() {
		metrics.SetSlotsAvailable(z.ZoneID, z.Free)
	}
	logger.Info("slot ledger loaded",
		zap.Int("slots", len(all)),
		zap.Int("held", l.Held()),
	)
	return l, nil
}
