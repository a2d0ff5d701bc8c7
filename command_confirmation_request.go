package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ConfirmationRequestMessage asks for a confirmation token to be issued and
// mailed to a user. The %token% and %uid% placeholders in Template are
// substituted before sending.
type ConfirmationRequestMessage struct {
	User     *User
	Config   EmailConfig
	Subject  string
	Template string
}

func (m ConfirmationRequestMessage) Type() string { return "user.confirmation_request" }

// ConfirmationRequestHandler runs the Unconfirmed -> TokenIssued leg of the
// confirmation state machine.
type ConfirmationRequestHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

// NewConfirmationRequestHandler creates a handler with sane defaults.
func NewConfirmationRequestHandler(repo RepositoryManager, mailer Mailer) *ConfirmationRequestHandler {
	return &ConfirmationRequestHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmationRequestHandler) WithLogger(logger Logger) *ConfirmationRequestHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmationRequestHandler) Execute(ctx context.Context, event ConfirmationRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmationRequestHandler) execute(ctx context.Context, event ConfirmationRequestMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := sendTokenEmail(
		ctx,
		h.repo,
		h.repo.ConfirmationTokens(),
		h.mailer,
		event.User,
		event.Config,
		event.Subject,
		defaultConfirmationSubject,
		event.Template,
	)

	if err != nil {
		h.logger.Error("confirmation request failed: %v", err)
	}

	return err
}
