// Package event publishes identity and workspace domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	"github.com/imamteguh/backend-fullstack-taskman/internal/kafka"
	"github.com/imamteguh/backend-fullstack-taskman/internal/logger"
)

// Kafka topic constants for taskman domain events.
const (
	TopicAccountRegistered    = "taskman.account.registered"
	TopicAccountVerified      = "taskman.account.verified"
	TopicAccountPasswordReset = "taskman.account.password_reset"
	TopicInviteAccepted       = "taskman.workspace.invite_accepted"
)

// Subject type constants.
const (
	SubjectTypeAccount   = "account"
	SubjectTypeWorkspace = "workspace"
)

// Source identifier for events originating from this service.
const Source = "taskman-api"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AccountVerifiedData is the payload for an account.verified event.
type AccountVerifiedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AccountPasswordResetData is the payload for an account.password_reset event.
type AccountPasswordResetData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// InviteAcceptedData is the payload for a workspace.invite_accepted event.
type InviteAcceptedData struct {
	WorkspaceID string `json:"workspace_id"`
	AccountID   string `json:"account_id"`
	Role        string `json:"role"`
}

// Producer publishes taskman domain events to Kafka. A nil Producer is
// valid and publishes nothing, so event emission stays optional in
// development setups without a broker.
type Producer struct {
	kafka  *kafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(k *kafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  k,
		logger: logger,
	}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, account *domain.Account) error {
	data := AccountRegisteredData{
		ID:    account.ID,
		Email: account.Email,
		Name:  account.Name,
	}
	return p.publish(ctx, TopicAccountRegistered, account.ID, SubjectTypeAccount, data)
}

// PublishAccountVerified publishes an account.verified event.
func (p *Producer) PublishAccountVerified(ctx context.Context, account *domain.Account) error {
	data := AccountVerifiedData{
		ID:    account.ID,
		Email: account.Email,
	}
	return p.publish(ctx, TopicAccountVerified, account.ID, SubjectTypeAccount, data)
}

// PublishAccountPasswordReset publishes an account.password_reset event.
func (p *Producer) PublishAccountPasswordReset(ctx context.Context, accountID, email string) error {
	data := AccountPasswordResetData{
		ID:    accountID,
		Email: email,
	}
	return p.publish(ctx, TopicAccountPasswordReset, accountID, SubjectTypeAccount, data)
}

// PublishInviteAccepted publishes a workspace.invite_accepted event.
func (p *Producer) PublishInviteAccepted(ctx context.Context, workspaceID, accountID, role string) error {
	data := InviteAcceptedData{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Role:        role,
	}
	return p.publish(ctx, TopicInviteAccepted, workspaceID, SubjectTypeWorkspace, data)
}

func (p *Producer) publish(ctx context.Context, topic, subjectID, subjectType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	evt, err := kafka.NewEvent(topic, subjectID, subjectType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("subject_id", subjectID),
	)

	return nil
}
