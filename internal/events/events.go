// Package events publica eventos de ciclo de vida en modo best-effort:
// una falla de publicación se loguea y no corta el flujo que la originó.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicTenant       = "tenant-events"
	TopicUser         = "user-events"
	TopicNotification = "notification-events"
)

// Event types.
const (
	TenantRegistered        = "tenant.registered"
	UserCreated             = "user.created"
	EmailVerified           = "user.email.verified"
	EmailVerificationFailed = "user.email.verification.failed"
	VerificationRateLimited = "verification.resend.rate.limit.exceeded"
	UserLoggedIn            = "user.logged.in"
	UserLoggedOut           = "user.logged.out"
	AccountLocked           = "user.account.locked"
	AccountUnlocked         = "user.account.unlocked"

	PasswordResetRequested    = "password.reset.requested"
	PasswordResetEmailSent    = "password.reset.email.sent"
	PasswordResetCompleted    = "password.reset.completed"
	PasswordResetFailed       = "password.reset.failed"
	PasswordResetRateLimited  = "password.reset.rate.limit.exceeded"
	PasswordResetUnknownEmail = "password.reset.unknown.email"

	ProfileCompletionStarted   = "profile.completion.started"
	ProfileCompletionCompleted = "profile.completion.completed"
	ProfileCompletionFailed    = "profile.completion.failed"
	ProfilePhotoUploaded       = "profile.photo.uploaded"
)

// Event es el sobre con el que viaja todo evento publicado.
type Event struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Data      any       `json:"data"`
}

// New arma el sobre con id nuevo y versión fija "1.0".
func New(eventType string, data any) Event {
	return Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Version:   "1.0",
		Data:      data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

// Nop descarta todo. Para tests y para correr sin broker.
type Nop struct{}

func (Nop) Publish(ctx context.Context, topic string, ev Event) error { return nil }
