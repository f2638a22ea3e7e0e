package worker

import (
	"github.com/ticketledger/ticket-ledger/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartHistoryIndexer registers the ticket history index handlers.
func StartHistoryIndexer(indexer *service.HistoryIndexer) {
	if indexer == nil {
		return
	}
	indexer.RegisterHandlers()
}
