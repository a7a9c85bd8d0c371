package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/config"
	"github.com/spec-kit/sla-ticket-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	fanout     events.EventHandler
}

// NewNotificationService creates the service. fanout may be nil; when set
// it receives every event, typically a Redis channel publisher.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, fanout events.EventHandler) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		fanout:     fanout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventJustificationSubmitted, n.handleJustificationSubmitted)
	n.dispatcher.Subscribe(events.EventJustificationApproved, n.handleJustificationDecided)
	n.dispatcher.Subscribe(events.EventJustificationRejected, n.handleJustificationDecided)
	n.dispatcher.Subscribe(events.EventTicketOverdue, n.handleTicketOverdue)
	if n.fanout != nil {
		n.dispatcher.SubscribeAll(n.fanout)
	}
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleJustificationSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("JustificationSubmitted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleJustificationDecided(ctx context.Context, event events.Event) error {
	n.logger.Info("JustificationDecided",
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketOverdue(ctx context.Context, event events.Event) error {
	n.logger.Warn("TicketOverdue", zap.String("ticket_id", event.TicketID), zap.String("code", event.TicketCode), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
