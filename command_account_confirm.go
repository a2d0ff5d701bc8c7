package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ConfirmAccountMessage presents a raw confirmation token for a user.
type ConfirmAccountMessage struct {
	User       *User
	Token      string
	OnResponse func(resp *ConfirmAccountResponse)
}

func (m ConfirmAccountMessage) Type() string { return "user.confirm" }

// ConfirmAccountResponse reports the outcome. Confirmed is false for a
// wrong, absent, or already consumed token; that is not an error.
type ConfirmAccountResponse struct {
	Confirmed bool
}

// ConfirmAccountHandler verifies a confirmation token and, in one
// transaction, consumes it and flips the user's confirmed flag.
type ConfirmAccountHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewConfirmAccountHandler creates a handler with sane defaults.
func NewConfirmAccountHandler(repo RepositoryManager) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmAccountHandler) WithLogger(logger Logger) *ConfirmAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	if event.User == nil || event.User.ID == 0 {
		return goerrors.New("confirmation requires a persisted user", goerrors.CategoryBadInput)
	}

	resp := &ConfirmAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ledger := h.repo.ConfirmationTokens()

		ok, err := ledger.VerifyTx(ctx, tx, event.User.ID, event.Token)
		if err != nil {
			return err
		}
		if !ok {
			// wrong or absent token is part of the expected flow
			return nil
		}

		// Consume before the state change: racing confirms serialize on the
		// token row and only the one that deleted it proceeds.
		consumed, err := ledger.ConsumeTx(ctx, tx, event.User.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return nil
		}

		if err := h.repo.Users().SetConfirmedTx(ctx, tx, event.User.ID); err != nil {
			return err
		}

		resp.Confirmed = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm account")
	}

	if resp.Confirmed {
		event.User.Confirmed = true
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
