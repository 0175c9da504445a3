package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-desk/internal/config"
	"github.com/spec-kit/issue-desk/internal/events"
)

// NotificationService reacts to lifecycle events. Actual delivery is out of
// scope, so the email and webhook sinks are logging stubs gated on their
// config being set.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes to every event the engine publishes.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType, sinks := range map[events.EventType][]func(context.Context, events.Event){
		events.EventTicketCreated:       {n.emailStub, n.webhookStub},
		events.EventTicketAssigned:      {n.webhookStub},
		events.EventTicketStatusChanged: {n.webhookStub},
		events.EventFeedbackSubmitted:   {n.emailStub},
		events.EventAccountRemoved:      {n.webhookStub},
	} {
		n.dispatcher.Subscribe(eventType, n.notify(sinks))
	}
}

func (n *NotificationService) notify(sinks []func(context.Context, events.Event)) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info("event received",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.String("actor_id", event.Actor.AccountID))
		for _, sink := range sinks {
			sink(ctx, event)
		}
		return nil
	}
}

func (n *NotificationService) emailStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification stub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))
}

func (n *NotificationService) webhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification stub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))
}
