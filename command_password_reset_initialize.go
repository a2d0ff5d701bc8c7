package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetRequestMessage asks for a reset token to be issued and mailed
// to a user. Template placeholders follow ConfirmationRequestMessage.
type PasswordResetRequestMessage struct {
	User     *User
	Config   EmailConfig
	Subject  string
	Template string
}

func (m PasswordResetRequestMessage) Type() string { return "user.password_reset" }

// PasswordResetRequestHandler runs the Requested -> TokenIssued leg of the
// password reset state machine. It carries the same rollback guarantee as
// the confirmation request: a failed send undoes the token upsert.
type PasswordResetRequestHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

// NewPasswordResetRequestHandler creates a handler with sane defaults.
func NewPasswordResetRequestHandler(repo RepositoryManager, mailer Mailer) *PasswordResetRequestHandler {
	return &PasswordResetRequestHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *PasswordResetRequestHandler) WithLogger(logger Logger) *PasswordResetRequestHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *PasswordResetRequestHandler) Execute(ctx context.Context, event PasswordResetRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordResetRequestHandler) execute(ctx context.Context, event PasswordResetRequestMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := sendTokenEmail(
		ctx,
		h.repo,
		h.repo.ResetTokens(),
		h.mailer,
		event.User,
		event.Config,
		event.Subject,
		defaultResetSubject,
		event.Template,
	)

	if err != nil {
		h.logger.Error("password reset request failed: %v", err)
	}

	return err
}
