package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerifyResetTokenMessage checks a raw reset token without consuming it.
// The caller is expected to prompt for a new password next and only then
// finalize, which is when the token is spent.
type VerifyResetTokenMessage struct {
	User       *User
	Token      string
	OnResponse func(resp *VerifyResetTokenResponse)
}

func (m VerifyResetTokenMessage) Type() string { return "user.password_reset_verify" }

// VerifyResetTokenResponse reports whether the presented token matches the
// live reset token. Invalid is a normal negative outcome, not an error.
type VerifyResetTokenResponse struct {
	Valid bool
}

// VerifyResetTokenHandler is the pure verification step of the reset flow.
type VerifyResetTokenHandler struct {
	repo RepositoryManager
}

// NewVerifyResetTokenHandler creates the handler.
func NewVerifyResetTokenHandler(repo RepositoryManager) *VerifyResetTokenHandler {
	return &VerifyResetTokenHandler{repo: repo}
}

func (h *VerifyResetTokenHandler) Execute(ctx context.Context, event VerifyResetTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset token verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyResetTokenHandler) execute(ctx context.Context, event VerifyResetTokenMessage) error {
	if event.User == nil || event.User.ID == 0 {
		return goerrors.New("verification requires a persisted user", goerrors.CategoryBadInput)
	}

	resp := &VerifyResetTokenResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ok, err := h.repo.ResetTokens().VerifyTx(ctx, tx, event.User.ID, event.Token)
		if err != nil {
			return err
		}
		resp.Valid = ok
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify reset token")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
