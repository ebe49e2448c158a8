package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"moneybook/internal/events"
	"moneybook/internal/models"
	"moneybook/internal/testutil"
	"moneybook/internal/tokenstore"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) (AuthServicer, *events.Bus, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	bus := events.NewBus(nil)
	svc := NewAuthService(db, bus, tokenstore.NewMemory(), testSecret, time.Hour)
	return svc, bus, func() { testutil.TeardownTestDB(t, db) }
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		session, err := svc.SignUp(ctx, " New@Example.com ", "secret1", "New User")
		testutil.AssertNoError(t, err)

		if session.AccessToken == "" || session.TokenType != "Bearer" {
			t.Errorf("unexpected session: %+v", session)
		}
		if session.User.Email != "new@example.com" {
			t.Errorf("expected normalized email, got %s", session.User.Email)
		}
		if session.User.Password == "secret1" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		_, err := svc.SignUp(ctx, "dup@example.com", "secret1", "")
		testutil.AssertNoError(t, err)
		_, err = svc.SignUp(ctx, "DUP@example.com", "secret1", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("duplicate_email_lost_race", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuthService(db, events.NewBus(nil), tokenstore.NewMemory(), testSecret, time.Hour)

		// Another sign-up lands between the email check and the insert.
		err := db.Callback().Create().Before("gorm:create").Register("test:concurrent_signup", func(d *gorm.DB) {
			if d.Statement.Table != "users" {
				return
			}
			now := time.Now()
			if _, err := d.Statement.ConnPool.ExecContext(d.Statement.Context,
				"INSERT INTO users (id, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
				"other-user", "race@example.com", "x", now, now); err != nil {
				d.AddError(err)
			}
		})
		testutil.AssertNoError(t, err)

		_, err = svc.SignUp(ctx, "race@example.com", "secret1", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("short_password", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		_, err := svc.SignUp(ctx, "a@example.com", "123", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_email", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		_, err := svc.SignUp(ctx, "not-an-email", "secret1", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuthService(db, nil, nil, testSecret, time.Hour)
		user := testutil.CreateTestUser(t, db)

		session, err := svc.SignIn(ctx, user.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)
		if session.User.ID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, session.User.ID)
		}
		if session.User.LastLoginAt == nil {
			t.Error("expected last_login_at to be set")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuthService(db, nil, nil, testSecret, time.Hour)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.SignIn(ctx, user.Email, "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuthService(db, nil, nil, testSecret, time.Hour)

		_, err := svc.SignIn(ctx, "nobody@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("locks_after_repeated_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuthService(db, nil, nil, testSecret, time.Hour)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < maxFailedLogins; i++ {
			_, err := svc.SignIn(ctx, user.Email, "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err := svc.SignIn(ctx, user.Email, testutil.TestPassword)
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		var stored models.User
		testutil.AssertNoError(t, db.First(&stored, "id = ?", user.ID).Error)
		if stored.LockedUntil == nil {
			t.Error("expected locked_until to be set")
		}
	})
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("valid_token", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		signedUp, err := svc.SignUp(ctx, "s@example.com", "secret1", "")
		testutil.AssertNoError(t, err)

		session, err := svc.Session(ctx, signedUp.AccessToken)
		testutil.AssertNoError(t, err)
		if session.User.ID != signedUp.User.ID {
			t.Errorf("expected user %s, got %s", signedUp.User.ID, session.User.ID)
		}
	})

	t.Run("signed_out_token", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		signedUp, err := svc.SignUp(ctx, "s@example.com", "secret1", "")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.SignOut(ctx, signedUp.AccessToken))
		_, err = svc.Session(ctx, signedUp.AccessToken)
		testutil.AssertAppError(t, err, "SESSION_EXPIRED")
	})

	t.Run("garbage_token", func(t *testing.T) {
		svc, _, done := newTestAuth(t)
		defer done()

		_, err := svc.Session(ctx, "not.a.jwt")
		testutil.AssertAppError(t, err, "UNAUTHORIZED")
	})

	t.Run("wrong_secret", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		issuer := NewAuthService(db, nil, nil, "one", time.Hour)
		checker := NewAuthService(db, nil, nil, "two", time.Hour)

		signedUp, err := issuer.SignUp(ctx, "s@example.com", "secret1", "")
		testutil.AssertNoError(t, err)

		_, err = checker.Session(ctx, signedUp.AccessToken)
		testutil.AssertAppError(t, err, "UNAUTHORIZED")
	})
}

func TestOnAuthStateChange(t *testing.T) {
	ctx := context.Background()
	svc, bus, done := newTestAuth(t)
	defer done()

	var seen []events.Type
	unsubscribe := svc.OnAuthStateChange(func(ev events.Event) {
		seen = append(seen, ev.Type)
	})

	session, err := svc.SignUp(ctx, "watch@example.com", "secret1", "")
	testutil.AssertNoError(t, err)
	bus.Publish(ctx, events.Event{Type: events.AccountSaved, UserID: session.User.ID})
	testutil.AssertNoError(t, svc.SignOut(ctx, session.AccessToken))

	unsubscribe()
	_, err = svc.SignIn(ctx, "watch@example.com", "secret1")
	testutil.AssertNoError(t, err)

	want := []events.Type{events.UserCreated, events.SignedIn, events.SignedOut}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("expected %v, got %v", want, seen)
			break
		}
	}
}
