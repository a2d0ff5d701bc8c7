package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Default subjects used when the caller leaves the subject empty.
const (
	defaultConfirmationSubject = "Please activate your account"
	defaultResetSubject        = "Please confirm to reset your password"
)

// sendTokenEmail is the shared issue-then-mail-then-commit-or-rollback step
// behind the confirmation and password reset requests. The mail send runs
// inside the transaction so a transport failure rolls the token upsert back
// and no token outlives an email that never left.
func sendTokenEmail(ctx context.Context, repo RepositoryManager, ledger TokenLedger, mailer Mailer, user *User, cfg EmailConfig, subject, defaultSubject, template string) error {
	if user == nil || user.ID == 0 {
		return goerrors.New("token email requires a persisted user", goerrors.CategoryBadInput)
	}

	// Sender is validated before any row effect.
	if err := cfg.Validate(); err != nil {
		return err
	}

	if mailer == nil {
		return goerrors.New("no mailer configured", goerrors.CategoryOperation)
	}

	if subject == "" {
		subject = defaultSubject
	}

	return repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		raw, err := ledger.IssueTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		msg := Message{
			From:     cfg.From,
			FromName: cfg.FromName,
			To:       user.Email,
			Subject:  subject,
			HTMLBody: RenderTemplate(template, raw, user.ID),
		}

		if err := mailer.Send(ctx, msg); err != nil {
			return goerrors.Wrap(err, ErrEmailSending.Category, ErrEmailSending.Message).
				WithTextCode(ErrEmailSending.TextCode)
		}

		return nil
	})
}
