package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NotificationWorker feeds committed ticket events to the notification router.
type NotificationWorker struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{dispatcher: dispatcher, logger: logger}
	if notificationService == nil {
		return w
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker started")
	return w
}

// Stop waits for in-flight deliveries to finish.
func (w *NotificationWorker) Stop() {
	if w == nil || w.dispatcher == nil {
		return
	}
	w.dispatcher.Close()
	w.logger.Info("notification worker stopped")
}
