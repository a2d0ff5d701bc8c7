package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyResetToken(t *testing.T, repo users.RepositoryManager, user *users.User, token string) bool {
	t.Helper()

	var valid bool
	handler := users.NewVerifyResetTokenHandler(repo)
	err := handler.Execute(context.Background(), users.VerifyResetTokenMessage{
		User:  user,
		Token: token,
		OnResponse: func(resp *users.VerifyResetTokenResponse) {
			valid = resp.Valid
		},
	})
	require.NoError(t, err)

	return valid
}

func requestReset(t *testing.T, repo users.RepositoryManager, mailer *fakeMailer, user *users.User) string {
	t.Helper()

	handler := users.NewPasswordResetRequestHandler(repo, mailer)
	err := handler.Execute(context.Background(), users.PasswordResetRequestMessage{
		User:     user,
		Config:   users.EmailConfig{From: "noreply@example.com"},
		Template: tokenTemplate,
	})
	require.NoError(t, err)
	require.NotEmpty(t, mailer.sent)

	return tokenFromBody(t, mailer.sent[len(mailer.sent)-1].HTMLBody)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := users.NewRepositoryManager(db)
	mailer := &fakeMailer{}

	user := newTestUser(t, repo.Users(), "user@example.com", "secret123")

	raw := requestReset(t, repo, mailer, user)
	assert.Equal(t, "Please confirm to reset your password", mailer.sent[0].Subject)

	// verification does not consume
	assert.True(t, verifyResetToken(t, repo, user, raw))
	assert.True(t, verifyResetToken(t, repo, user, raw))
	assert.False(t, verifyResetToken(t, repo, user, "0000000000000000000000000000dead"))

	finalize := users.NewFinalizePasswordResetHandler(repo)
	require.NoError(t, finalize.Execute(ctx, users.FinalizePasswordResetMessage{
		User:     user,
		Password: "newpass456",
	}))

	// the in-memory record carries the new hash
	assert.NoError(t, users.ComparePasswordAndHash("newpass456", user.PasswordHash))

	found, err := repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, users.ComparePasswordAndHash("newpass456", found.PasswordHash))
	assert.Equal(t, users.ErrMismatchedHashAndPassword,
		users.ComparePasswordAndHash("secret123", found.PasswordHash))

	// the reset token is gone once the password changed
	assert.False(t, verifyResetToken(t, repo, user, raw))

	count, err := db.NewSelect().Table("password_reset_tokens").Where("user_id = ?", user.ID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "reset token row must be removed after password change")
}

func TestPasswordResetMailFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := users.NewRepositoryManager(db)
	mailer := &fakeMailer{fail: assert.AnError}

	user := newTestUser(t, repo.Users(), "user@example.com", "secret123")

	handler := users.NewPasswordResetRequestHandler(repo, mailer)
	err := handler.Execute(ctx, users.PasswordResetRequestMessage{
		User:     user,
		Config:   users.EmailConfig{From: "noreply@example.com"},
		Template: tokenTemplate,
	})
	require.Error(t, err)
	assert.True(t, users.IsEmailSendingError(err))

	count, err := db.NewSelect().Table("password_reset_tokens").Where("user_id = ?", user.ID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFinalizeForMissingUserIsAnomaly(t *testing.T) {
	ctx := context.Background()
	repo := users.NewRepositoryManager(newTestDB(t))

	ghost := &users.User{ID: 4242, Email: "ghost@example.com"}

	finalize := users.NewFinalizePasswordResetHandler(repo)
	err := finalize.Execute(ctx, users.FinalizePasswordResetMessage{
		User:     ghost,
		Password: "newpass456",
	})
	assert.True(t, users.IsUpdateAnomalyError(err))
}

func TestFinalizeToleratesAbsentToken(t *testing.T) {
	ctx := context.Background()
	repo := users.NewRepositoryManager(newTestDB(t))

	user := newTestUser(t, repo.Users(), "user@example.com", "secret123")

	// no reset was ever requested; the password change still goes through
	finalize := users.NewFinalizePasswordResetHandler(repo)
	require.NoError(t, finalize.Execute(ctx, users.FinalizePasswordResetMessage{
		User:     user,
		Password: "newpass456",
	}))

	assert.NoError(t, users.ComparePasswordAndHash("newpass456", user.PasswordHash))
}
