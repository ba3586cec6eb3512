package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

// NotificationService reacts to ticket lifecycle events. Delivery is
// fire-and-forget: failures are logged, never propagated.
type NotificationService struct {
	dispatcher events.Dispatcher
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(dispatcher events.Dispatcher, cfg config.WebhookConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		webhookURL: cfg.URL,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every ticket event type.
func (s *NotificationService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketAssigned,
		events.EventTicketStatusChanged,
		events.EventTicketDeleted,
	} {
		s.dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *NotificationService) handle(ctx context.Context, event events.Event) error {
	s.logger.Info("ticket event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
	)
	if s.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"event_id":  event.ID,
		"type":      event.Type,
		"ticket_id": event.TicketID,
		"timestamp": event.Timestamp,
		"payload":   event.Payload,
	})
	if err != nil {
		s.logger.Warn("webhook payload marshal failed", zap.Error(err))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("webhook request build failed", zap.Error(err))
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed", zap.Error(err))
		return nil
	}
	_ = resp.Body.Close()
	return nil
}
