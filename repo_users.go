package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users translates user records to and from the row store. Lookups that find
// nothing return a nil user and a nil error: "the answer is no" is not a
// store failure.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)

	Create(ctx context.Context, email, passwordHash string, fields Fields, preConfirmed bool) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, email, passwordHash string, fields Fields, preConfirmed bool) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) error

	SetConfirmedTx(ctx context.Context, tx bun.IDB, id int64) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id int64, passwordHash string) error
}

type usersRepo struct {
	db *bun.DB
}

var _ Users = (*usersRepo)(nil)

// NewUsersRepository creates a Users repository over the given store handle.
func NewUsersRepository(db *bun.DB) Users {
	return &usersRepo{db: db}
}

// NormalizeEmail trims and lower-cases an address. Applied before every
// lookup and write so the unique constraint sees one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.GetByEmailTx(ctx, r.db, email)
}

func (r *usersRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return r.getBy(ctx, tx, "email", NormalizeEmail(email))
}

func (r *usersRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *usersRepo) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	return r.getBy(ctx, tx, "id", id)
}

func (r *usersRepo) getBy(ctx context.Context, tx bun.IDB, column string, value any) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user").
			WithTextCode(ErrStore.TextCode)
	}

	return record, nil
}

func (r *usersRepo) Create(ctx context.Context, email, passwordHash string, fields Fields, preConfirmed bool) (*User, error) {
	return r.CreateTx(ctx, r.db, email, passwordHash, fields, preConfirmed)
}

func (r *usersRepo) CreateTx(ctx context.Context, tx bun.IDB, email, passwordHash string, fields Fields, preConfirmed bool) (*User, error) {
	email = NormalizeEmail(email)

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email address")
	}

	if err := fields.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	record := &User{
		Email:        email,
		PasswordHash: passwordHash,
		Confirmed:    preConfirmed,
		Fields:       fields.Filtered(),
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user").
			WithTextCode(ErrStore.TextCode)
	}

	return record, nil
}

func (r *usersRepo) Update(ctx context.Context, user *User) error {
	return r.UpdateTx(ctx, r.db, user)
}

// UpdateTx rewrites the email plus the custom fields. Field keys failing the
// pattern are skipped silently here, unlike on the create path where they
// are rejected.
func (r *usersRepo) UpdateTx(ctx context.Context, tx bun.IDB, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	user.Fields = user.Fields.Filtered()
	now := time.Now()
	user.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(user).
		Column("email", "fields", "updated_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user").
			WithTextCode(ErrStore.TextCode)
	}

	return ensureOneRow(res)
}

func (r *usersRepo) SetConfirmedTx(ctx context.Context, tx bun.IDB, id int64) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("confirmed = ?", true).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user confirmed").
			WithTextCode(ErrStore.TextCode)
	}

	return ensureOneRow(res)
}

func (r *usersRepo) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id int64, passwordHash string) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password").
			WithTextCode(ErrStore.TextCode)
	}

	return ensureOneRow(res)
}

// ensureOneRow guards the update paths: anything but exactly one affected
// row is an anomaly, never a silent success.
func ensureOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read affected row count").
			WithTextCode(ErrStore.TextCode)
	}
	if n != 1 {
		return ErrUpdateAnomaly
	}
	return nil
}
