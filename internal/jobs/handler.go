package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opsforge/conveyor/internal/task"
)

// Collaborator contracts. All of them live in the application layer;
// the handler only routes to them.

// Mailer delivers an email.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// TokenStore removes expired authentication tokens.
type TokenStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// UserRegistrar completes a user registration.
type UserRegistrar interface {
	SendWelcomeEmail(ctx context.Context, userID int) error
}

// AvatarProcessor processes an uploaded avatar file.
type AvatarProcessor interface {
	Process(ctx context.Context, taskID string, userID int, fileName string) error
}

// Handler dispatches envelopes to the collaborator matching their task
// type. A nil collaborator makes the corresponding task type fail,
// which the engine treats like any other handler error.
type Handler struct {
	mailer  Mailer
	tokens  TokenStore
	users   UserRegistrar
	avatars AvatarProcessor
	logger  *slog.Logger
}

// NewHandler creates a handler over the given collaborators. Any of
// them may be nil if the deployment does not serve that task type.
func NewHandler(mailer Mailer, tokens TokenStore, users UserRegistrar, avatars AvatarProcessor, logger *slog.Logger) *Handler {
	return &Handler{
		mailer:  mailer,
		tokens:  tokens,
		users:   users,
		avatars: avatars,
		logger:  logger,
	}
}

// Handle executes one task envelope.
func (h *Handler) Handle(ctx context.Context, env *task.Envelope[Payload]) error {
	h.logger.Info("handling task", "task_id", env.ID, "task_type", env.Task.Type)

	switch env.Task.Type {
	case TypeSendEmail:
		if h.mailer == nil {
			return errors.New("mailer not configured")
		}
		if err := h.mailer.SendMail(ctx, env.Task.To, env.Task.Subject, env.Task.TextBody, env.Task.HTMLBody); err != nil {
			return fmt.Errorf("send email to %s: %w", env.Task.To, err)
		}
		return nil

	case TypeCleanupExpiredToken:
		if h.tokens == nil {
			return errors.New("token store not configured")
		}
		deleted, err := h.tokens.DeleteExpired(ctx)
		if err != nil {
			return fmt.Errorf("cleanup expired tokens: %w", err)
		}
		h.logger.Info("expired tokens cleaned up", "deleted", deleted)
		return nil

	case TypeProcessUserRegistration:
		if h.users == nil {
			return errors.New("user registrar not configured")
		}
		if err := h.users.SendWelcomeEmail(ctx, env.Task.UserID); err != nil {
			return fmt.Errorf("process registration for user %d: %w", env.Task.UserID, err)
		}
		return nil

	case TypeProcessAvatarUpload:
		if h.avatars == nil {
			return errors.New("avatar processor not configured")
		}
		if err := h.avatars.Process(ctx, env.Task.TaskID, env.Task.UserID, env.Task.FileName); err != nil {
			return fmt.Errorf("process avatar upload %s: %w", env.Task.TaskID, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown task type %q", env.Task.Type)
	}
}
