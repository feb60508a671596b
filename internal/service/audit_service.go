package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/events"
)

// AuditService writes auth events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventAdminSeeded, a.handleAdminSeeded)
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.UserRegisteredPayload)
	a.logger.Info("UserRegistered",
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("role", string(p.Role)))
	return nil
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.LoginSucceededPayload)
	a.logger.Info("LoginSucceeded",
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("role", string(p.Role)),
		zap.String("client_ip", p.ClientIP))
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.LoginFailedPayload)
	a.logger.Warn("LoginFailed",
		zap.String("event_id", event.ID),
		zap.String("email", p.Email),
		zap.String("reason", p.Reason),
		zap.String("client_ip", p.ClientIP))
	return nil
}

func (a *AuditService) handleAdminSeeded(_ context.Context, event events.Event) error {
	p, _ := event.Payload.(events.AdminSeededPayload)
	a.logger.Info("AdminSeeded",
		zap.String("subject_id", event.SubjectID),
		zap.String("email", p.Email),
		zap.Bool("created", p.Created))
	return nil
}
