package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roshansubedi/apphub-auth/internal/auth"
	"github.com/roshansubedi/apphub-auth/internal/models"
	"github.com/roshansubedi/apphub-auth/internal/store"
)

// fakeStore is an in-memory UserStore for tests.
type fakeStore struct {
	users map[string]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]models.User)}
}

func (f *fakeStore) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return store.ErrDuplicateUsername
		}
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) GetByUsernameAndEmail(_ context.Context, username, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Username == username && u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	for id, u := range f.users {
		if id != user.ID && u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) PruneExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, u := range f.users {
		if !u.IsVerified && u.VerificationExpires != nil && u.VerificationExpires.Before(now) {
			u.VerificationCode = nil
			u.VerificationExpires = nil
			f.users[id] = u
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteStaleUnverified(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, u := range f.users {
		if !u.IsVerified && u.CreatedAt.Before(before) {
			delete(f.users, id)
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	kind  string // "code", "username", "reset"
	to    string
	value string // code, username or link
}

// fakeNotifier records outbound mail.
type fakeNotifier struct {
	sent []sentMail
	err  error
}

func (f *fakeNotifier) SendVerificationCode(_ context.Context, email, _, code string) error {
	f.sent = append(f.sent, sentMail{kind: "code", to: email, value: code})
	return f.err
}

func (f *fakeNotifier) SendUsernameReminder(_ context.Context, email, username string) error {
	f.sent = append(f.sent, sentMail{kind: "username", to: email, value: username})
	return f.err
}

func (f *fakeNotifier) SendPasswordResetLink(_ context.Context, email, link string) error {
	f.sent = append(f.sent, sentMail{kind: "reset", to: email, value: link})
	return f.err
}

func (f *fakeNotifier) last() sentMail {
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	svc      *AccountService
	store    *fakeStore
	notifier *fakeNotifier
	tokens   *auth.TokenService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		notifier: &fakeNotifier{},
		tokens:   auth.NewTokenService([]byte("test-secret")),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAccountService(f.store, f.notifier, f.tokens,
		time.Hour, 15*time.Minute, "http://localhost:3000/reset-password.html")
	f.svc.now = func() time.Time { return f.now }
	return f
}

var aliceSignup = SignupInput{
	Username:  "alice",
	Email:     "a@x.com",
	Firstname: "A",
	Lastname:  "Liss",
	Password:  "pw1",
}

func (f *fixture) signupAlice(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.Signup(context.Background(), aliceSignup))
}

func (f *fixture) verifyAlice(t *testing.T) {
	t.Helper()
	code := f.notifier.last().value
	require.NoError(t, f.svc.VerifyEmail(context.Background(), "a@x.com", code))
}

func TestSignupCreatesUnverifiedAccountWithCode(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	user, err := f.store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.VerificationCode)
	require.NotNil(t, user.VerificationExpires)
	assert.Equal(t, f.now.Add(15*time.Minute), *user.VerificationExpires)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "code", f.notifier.last().kind)
	assert.Equal(t, "a@x.com", f.notifier.last().to)
	assert.Equal(t, *user.VerificationCode, f.notifier.last().value)
}

func TestSignupDuplicateEmailWinsOverDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	// Same email, fresh username
	in := aliceSignup
	in.Username = "someone-else"
	err := f.svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	// Same email AND same username: still reported as duplicate email
	err = f.svc.Signup(context.Background(), aliceSignup)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestSignupDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	in := aliceSignup
	in.Email = "other@x.com"
	err := f.svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestSignupSucceedsWhenEmailSendFails(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = assert.AnError

	require.NoError(t, f.svc.Signup(context.Background(), aliceSignup))
	_, err := f.store.GetByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err, "record must be created even when the email send fails")
}

func TestVerifyEmailTransitionsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	code := f.notifier.last().value

	err := f.svc.VerifyEmail(context.Background(), "a@x.com", "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	require.NoError(t, f.svc.VerifyEmail(context.Background(), "a@x.com", code))
	user, err := f.store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.VerificationCode)
	assert.Nil(t, user.VerificationExpires)

	err = f.svc.VerifyEmail(context.Background(), "a@x.com", code)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyEmailExpiredCodeNeverSucceeds(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	code := f.notifier.last().value

	f.now = f.now.Add(16 * time.Minute)
	err := f.svc.VerifyEmail(context.Background(), "a@x.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	user, _ := f.store.GetByEmail(context.Background(), "a@x.com")
	assert.False(t, user.IsVerified)
}

func TestVerifyEmailUnknownAddress(t *testing.T) {
	f := newFixture(t)
	err := f.svc.VerifyEmail(context.Background(), "nobody@x.com", "123456")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResendCodeRegeneratesAndResends(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	f.now = f.now.Add(10 * time.Minute)
	require.NoError(t, f.svc.ResendCode(context.Background(), "a@x.com"))

	require.Len(t, f.notifier.sent, 2)
	user, err := f.store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.VerificationCode)
	assert.Equal(t, *user.VerificationCode, f.notifier.last().value)
	assert.Equal(t, f.now.Add(15*time.Minute), *user.VerificationExpires)
}

func TestResendCodeAlreadyVerified(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	f.verifyAlice(t)

	err := f.svc.ResendCode(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestLoginEnumerationResistance(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	f.verifyAlice(t)

	_, errWrongPassword := f.svc.Login(context.Background(), "alice", "wrongpw")
	_, errNoSuchUser := f.svc.Login(context.Background(), "mallory", "wrongpw")

	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoSuchUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errNoSuchUser.Error())
}

func TestLoginBlockedUntilVerified(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	_, err := f.svc.Login(context.Background(), "alice", "pw1")
	var notVerified *NotVerifiedError
	require.ErrorAs(t, err, &notVerified)
	assert.Equal(t, "a@x.com", notVerified.Email)
}

func TestLoginIssuesSessionTokenForSubject(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	f.verifyAlice(t)

	token, err := f.svc.Login(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	user, err := f.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	subject, err := f.tokens.Validate(token, auth.PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestUsernameReminderUnknownAddressIsSilent(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RequestUsernameReminder(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent)
}

func TestUsernameReminderSendsUsername(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	require.NoError(t, f.svc.RequestUsernameReminder(context.Background(), "a@x.com"))
	assert.Equal(t, sentMail{kind: "username", to: "a@x.com", value: "alice"}, f.notifier.last())
}

func TestRequestPasswordResetRequiresMatchingPair(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	err := f.svc.RequestPasswordReset(context.Background(), "alice", "other@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = f.svc.RequestPasswordReset(context.Background(), "bob", "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	f.verifyAlice(t)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "alice", "a@x.com"))
	link := f.notifier.last().value
	assert.Contains(t, link, "http://localhost:3000/reset-password.html?token=")
	token := link[len("http://localhost:3000/reset-password.html?token="):]

	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), token, "pw2"))

	_, err := f.svc.Login(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(context.Background(), "alice", "pw2")
	assert.NoError(t, err)
}

func TestConfirmPasswordResetRejectsTamperedToken(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "alice", "a@x.com"))
	link := f.notifier.last().value
	token := link[len("http://localhost:3000/reset-password.html?token="):]

	// Flip the first byte of the signature segment
	tampered := []byte(token)
	i := strings.LastIndexByte(token, '.') + 1
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	err := f.svc.ConfirmPasswordReset(context.Background(), string(tampered), "pw2")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestConfirmPasswordResetRejectsSessionToken(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	f.verifyAlice(t)

	sessionToken, err := f.svc.Login(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	err = f.svc.ConfirmPasswordReset(context.Background(), sessionToken, "pw2")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	user, _ := f.store.GetByUsername(context.Background(), "alice")

	err := f.svc.UpdatePassword(context.Background(), user.ID, "wrongpw", "pw2")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	require.NoError(t, f.svc.UpdatePassword(context.Background(), user.ID, "pw1", "pw2"))
	updated, _ := f.store.GetByID(context.Background(), user.ID)
	assert.True(t, auth.CheckPassword("pw2", updated.PasswordHash))
}

func TestUpdateEmailResetsVerification(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	firstCode := f.notifier.last().value
	f.verifyAlice(t)

	user, _ := f.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, f.svc.UpdateEmail(context.Background(), user.ID, "new@x.com"))

	updated, err := f.store.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", updated.Email)
	assert.False(t, updated.IsVerified)
	require.NotNil(t, updated.VerificationCode)
	assert.NotEqual(t, firstCode, *updated.VerificationCode)

	assert.Equal(t, "code", f.notifier.last().kind)
	assert.Equal(t, "new@x.com", f.notifier.last().to)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	user, _ := f.store.GetByUsername(context.Background(), "alice")

	err := f.svc.UpdateProfile(context.Background(), user.ID, "", "Liss")
	assert.ErrorIs(t, err, ErrMissingFields)
	err = f.svc.UpdateProfile(context.Background(), user.ID, "Alice", "  ")
	assert.ErrorIs(t, err, ErrMissingFields)

	require.NoError(t, f.svc.UpdateProfile(context.Background(), user.ID, "Alice", "Lissova"))
	updated, _ := f.store.GetByID(context.Background(), user.ID)
	assert.Equal(t, "Alice", updated.Firstname)
	assert.Equal(t, "Lissova", updated.Lastname)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	f.signupAlice(t)
	user, _ := f.store.GetByUsername(context.Background(), "alice")

	require.NoError(t, f.svc.DeleteAccount(context.Background(), user.ID))
	_, err := f.store.GetByID(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = f.svc.DeleteAccount(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
