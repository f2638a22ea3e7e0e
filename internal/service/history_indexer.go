package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/repository"
)

// HistoryIndexer records ticket changes from ledger events so history can
// be listed without replaying blocks.
type HistoryIndexer struct {
	dispatcher events.Dispatcher
	history    repository.TicketHistoryRepository
	logger     *zap.Logger
}

// NewHistoryIndexer creates the indexer.
func NewHistoryIndexer(dispatcher events.Dispatcher, history repository.TicketHistoryRepository, logger *zap.Logger) *HistoryIndexer {
	return &HistoryIndexer{dispatcher: dispatcher, history: history, logger: logger}
}

// RegisterHandlers subscribes to ticket events.
func (h *HistoryIndexer) RegisterHandlers() {
	if h.dispatcher == nil || h.history == nil {
		return
	}
	h.dispatcher.Subscribe(events.EventTicketCreated, h.handleTicketCreated)
	h.dispatcher.Subscribe(events.EventTicketStatusChanged, h.handleTicketStatusChanged)
}

func (h *HistoryIndexer) handleTicketCreated(ctx context.Context, event events.Event) error {
	return h.record(ctx, event, domain.TicketHistory{
		ChangeType: domain.ChangeTypeCreated,
		NewStatus:  domain.TicketStatusOpen,
	})
}

func (h *HistoryIndexer) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("history: unexpected payload %T for %s", event.Payload, event.Type)
	}
	return h.record(ctx, event, domain.TicketHistory{
		ChangeType: domain.ChangeTypeStatus,
		OldStatus:  null.IntFrom(int64(payload.OldStatus)),
		NewStatus:  payload.NewStatus,
	})
}

func (h *HistoryIndexer) record(ctx context.Context, event events.Event, entry domain.TicketHistory) error {
	entry.ID = uuid.NewString()
	entry.TicketID = event.TicketID
	entry.ChangedBy = event.Actor
	entry.BlockHeight = event.BlockHeight
	entry.TxID = event.TxID
	entry.CreatedAt = event.Timestamp
	if err := h.history.Create(ctx, &entry); err != nil {
		h.logger.Error("failed to index ticket history",
			zap.Uint64("ticket_id", event.TicketID),
			zap.String("tx_id", event.TxID),
			zap.Error(err))
		return err
	}
	return nil
}
