package worker

import "github.com/spec-kit/issue-desk/internal/service"

// StartNotificationWorker hooks the notification service into the event
// stream. Must run before the HTTP server starts publishing.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
