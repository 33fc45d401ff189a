package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/testutil"
)

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if got := apperr.From(err).Code; got != code {
		t.Fatalf("code = %s, want %s", got, code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.TestDB(t)
	svc := auth.NewService(db, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "User@Example.com", "User", "supersecret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "supersecret" {
		t.Error("password stored in plain text")
	}

	sess, got, err := svc.Login(ctx, "user@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login user = %s, want %s", got.ID, user.ID)
	}

	verified, err := svc.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.ID != user.ID {
		t.Errorf("verified user = %s", verified.ID)
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	db := testutil.TestDB(t)
	svc := auth.NewService(db, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "x", "supersecret")
	wantCode(t, err, apperr.CodeInvalidRequest)

	_, err = svc.Register(ctx, "a@b.com", "x", "short")
	wantCode(t, err, apperr.CodeInvalidRequest)

	if _, err := svc.Register(ctx, "a@b.com", "x", "supersecret"); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Register(ctx, "a@b.com", "x", "supersecret")
	wantCode(t, err, apperr.CodeInvalidRequest)
}

func TestLoginWrongPassword(t *testing.T) {
	db := testutil.TestDB(t)
	svc := auth.NewService(db, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "x", "supersecret"); err != nil {
		t.Fatal(err)
	}
	_, _, err := svc.Login(ctx, "a@b.com", "wrongwrong")
	wantCode(t, err, apperr.CodeUnauthenticated)

	_, _, err = svc.Login(ctx, "ghost@b.com", "supersecret")
	wantCode(t, err, apperr.CodeUnauthenticated)
}

func TestVerifyMissingAndLoggedOut(t *testing.T) {
	db := testutil.TestDB(t)
	svc := auth.NewService(db, time.Hour)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "")
	wantCode(t, err, apperr.CodeUnauthenticated)

	_, err = svc.Verify(ctx, "bogus")
	wantCode(t, err, apperr.CodeUnauthenticated)

	if _, err := svc.Register(ctx, "a@b.com", "x", "supersecret"); err != nil {
		t.Fatal(err)
	}
	sess, _, err := svc.Login(ctx, "a@b.com", "supersecret")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Verify(ctx, sess.Token)
	wantCode(t, err, apperr.CodeUnauthenticated)
}

func TestAuthorize(t *testing.T) {
	db := testutil.TestDB(t)
	svc := auth.NewService(db, time.Hour)
	ctx := context.Background()

	owner, err := svc.Register(ctx, "owner@b.com", "o", "supersecret")
	if err != nil {
		t.Fatal(err)
	}
	outsider, err := svc.Register(ctx, "out@b.com", "o", "supersecret")
	if err != nil {
		t.Fatal(err)
	}

	p := models.Project{ID: "p1", Name: "p", CreatedAt: time.Now().UTC()}
	if err := db.CreateProject(ctx, p, owner.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Authorize(ctx, p.ID, owner.ID, models.RoleOwner); err != nil {
		t.Errorf("owner should pass owner check: %v", err)
	}
	if _, err := svc.Authorize(ctx, p.ID, owner.ID, models.RoleViewer); err != nil {
		t.Errorf("owner should pass viewer check: %v", err)
	}

	_, err = svc.Authorize(ctx, p.ID, outsider.ID, models.RoleViewer)
	wantCode(t, err, apperr.CodePermissionDenied)

	_, err = svc.Authorize(ctx, "missing", owner.ID, models.RoleViewer)
	wantCode(t, err, apperr.CodeProjectNotFound)
}
