package users

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Purpose tags which workflow a token belongs to and selects the backing
// relation.
type Purpose string

const (
	// PurposeConfirmation namespaces email confirmation tokens.
	PurposeConfirmation Purpose = "confirmation"
	// PurposePasswordReset namespaces password reset tokens.
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) table() string {
	switch p {
	case PurposePasswordReset:
		return "password_reset_tokens"
	default:
		return "confirmation_tokens"
	}
}

// TokenLedger owns the single-use token lifecycle for one Purpose. Issue
// returns the raw token exactly once; only its hash is stored. Verify is
// side-effect free; Consume deletes. At most one token is live per user,
// enforced by an atomic upsert on the user_id unique key.
type TokenLedger interface {
	Issue(ctx context.Context, userID int64) (string, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID int64) (string, error)
	Verify(ctx context.Context, userID int64, rawToken string) (bool, error)
	VerifyTx(ctx context.Context, tx bun.IDB, userID int64, rawToken string) (bool, error)
	Consume(ctx context.Context, userID int64) (bool, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, userID int64) (bool, error)
}

type tokenLedger struct {
	db      *bun.DB
	purpose Purpose
	ttl     string
}

var _ TokenLedger = (*tokenLedger)(nil)

// LedgerOption configures a TokenLedger.
type LedgerOption func(*tokenLedger)

// WithTokenTTL bounds token validity with a duration pattern such as "24h".
// Tokens older than the threshold verify as absent. The default is no
// expiry: a token stays live until overwritten or consumed.
func WithTokenTTL(pattern string) LedgerOption {
	return func(l *tokenLedger) {
		l.ttl = pattern
	}
}

// NewTokenLedger creates a ledger for the given purpose over the store
// handle.
func NewTokenLedger(db *bun.DB, purpose Purpose, opts ...LedgerOption) TokenLedger {
	ledger := &tokenLedger{db: db, purpose: purpose}
	for _, opt := range opts {
		if opt != nil {
			opt(ledger)
		}
	}
	return ledger
}

func (l *tokenLedger) Issue(ctx context.Context, userID int64) (string, error) {
	return l.IssueTx(ctx, l.db, userID)
}

// IssueTx generates a raw token, stores its hash, and returns the raw value
// for one-time transmission. A prior live token for the same user is
// replaced and becomes permanently unverifiable.
func (l *tokenLedger) IssueTx(ctx context.Context, tx bun.IDB, userID int64) (string, error) {
	raw, err := GenerateToken()
	if err != nil {
		return "", err
	}

	hash, err := HashToken(raw)
	if err != nil {
		return "", ErrTokenGeneration
	}

	record := &TokenRecord{
		UserID:    userID,
		TokenHash: hash,
		CreatedAt: time.Now(),
	}

	_, err = tx.NewInsert().
		Model(record).
		ModelTableExpr(l.purpose.table() + " AS tok").
		On("CONFLICT (user_id) DO UPDATE").
		Set("token_hash = EXCLUDED.token_hash").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)

	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store token hash").
			WithTextCode(ErrStore.TextCode).
			WithMetadata(map[string]any{"purpose": string(l.purpose)})
	}

	return raw, nil
}

func (l *tokenLedger) Verify(ctx context.Context, userID int64, rawToken string) (bool, error) {
	return l.VerifyTx(ctx, l.db, userID, rawToken)
}

// VerifyTx checks a raw token against the stored hash. Absent, mismatched,
// or expired tokens are a normal negative outcome, not an error.
func (l *tokenLedger) VerifyTx(ctx context.Context, tx bun.IDB, userID int64, rawToken string) (bool, error) {
	if rawToken == "" {
		return false, nil
	}

	record := &TokenRecord{}
	err := tx.NewSelect().
		Model(record).
		ModelTableExpr(l.purpose.table() + " AS tok").
		Where("tok.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch token hash").
			WithTextCode(ErrStore.TextCode).
			WithMetadata(map[string]any{"purpose": string(l.purpose)})
	}

	if l.ttl != "" {
		expired, err := IsOutsideThresholdPeriod(record.CreatedAt, l.ttl)
		if err != nil {
			return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token expiry")
		}
		if expired {
			return false, nil
		}
	}

	if err := CompareTokenAndHash(rawToken, record.TokenHash); err != nil {
		if err == ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "stored token hash is malformed").
			WithTextCode(ErrStore.TextCode)
	}

	return true, nil
}

func (l *tokenLedger) Consume(ctx context.Context, userID int64) (bool, error) {
	return l.ConsumeTx(ctx, l.db, userID)
}

// ConsumeTx deletes the live token and reports whether one was present.
// Callers run it in the same transaction as the state change it authorizes,
// so racing consumers serialize on the row and at most one sees it present.
func (l *tokenLedger) ConsumeTx(ctx context.Context, tx bun.IDB, userID int64) (bool, error) {
	res, err := tx.NewDelete().
		Model((*TokenRecord)(nil)).
		ModelTableExpr(l.purpose.table() + " AS tok").
		Where("tok.user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete token").
			WithTextCode(ErrStore.TextCode).
			WithMetadata(map[string]any{"purpose": string(l.purpose)})
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read affected row count").
			WithTextCode(ErrStore.TextCode)
	}

	return n > 0, nil
}
