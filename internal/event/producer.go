package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	pkgkafka "github.com/HarryOhm33/We-Hack/pkg/kafka"
)

// Kafka event type constants for auth domain events. The OTP topic is
// consumed by the notification worker that sends the verification email.
const (
	EventOTPRequested   = "wehack.auth.otp_requested"
	EventUserRegistered = "wehack.auth.user_registered"
)

// Aggregate type constant.
const AggregateTypeSignup = "signup"

// Source identifier for events originating from the backend.
const SourceBackend = "wehack-backend"

// OTPRequestedData is the payload for an otp_requested event. The consumer
// renders and sends the verification email.
type OTPRequestedData struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserRegisteredData is the payload for a user_registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// publisher is the producer capability the event layer needs.
type publisher interface {
	Publish(ctx context.Context, event *pkgkafka.Event) error
}

// Producer publishes auth domain events to Kafka. Each event type has its
// own topic, so each publisher here is bound to a distinct stream.
type Producer struct {
	otp        publisher
	registered publisher
	logger     *slog.Logger
}

// NewProducer creates an event producer over the otp_requested and
// user_registered streams.
func NewProducer(otp, registered publisher, logger *slog.Logger) *Producer {
	return &Producer{
		otp:        otp,
		registered: registered,
		logger:     logger,
	}
}

// PublishOTPRequested publishes an otp_requested event carrying the
// verification code for an email. Callers treat a publish failure as fatal
// for the signup attempt, since the code would otherwise never reach the
// user.
func (p *Producer) PublishOTPRequested(ctx context.Context, signup *domain.PendingSignup) error {
	data := OTPRequestedData{
		Email:     signup.Email,
		Name:      signup.Name,
		OTP:       signup.OTP,
		ExpiresAt: signup.ExpiresAt,
	}

	event, err := pkgkafka.NewEvent(EventOTPRequested, signup.Email, AggregateTypeSignup, SourceBackend, data)
	if err != nil {
		return fmt.Errorf("create otp_requested event: %w", err)
	}

	if err := p.otp.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish otp_requested event: %w", err)
	}

	p.logger.DebugContext(ctx, "published otp_requested event",
		slog.String("email", signup.Email),
	)

	return nil
}

// PublishUserRegistered publishes a user_registered event after a successful
// verification.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}

	event, err := pkgkafka.NewEvent(EventUserRegistered, user.ID, AggregateTypeSignup, SourceBackend, data)
	if err != nil {
		return fmt.Errorf("create user_registered event: %w", err)
	}

	if err := p.registered.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish user_registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user_registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}
