package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/greenvolt/loanhub/internal/service"
)

func validRegisterRequest(username, email string) user.RegisterRequest {
	return user.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        "correct-horse-9",
		PasswordConfirm: "correct-horse-9",
	}
}

func validSelfRegistration(email string) customer.SelfRegistrationRequest {
	return customer.SelfRegistrationRequest{
		Email:           email,
		Password:        "correct-horse-9",
		PasswordConfirm: "correct-horse-9",
		FirstName:       "Sunny",
		LastName:        "Roof",
		AddressLine1:    "9 Inverter Rd",
		City:            "Phoenix",
		State:           "AZ",
		PostalCode:      "85001",
	}
}

func TestRegisterUser(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	u, err := e.registration.RegisterUser(ctx, validRegisterRequest("sunny", "sunny@example.com"))

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if !u.IsCustomer() {
		t.Fatalf("new accounts are customers, got %s", u.Role)
	}

	if u.Superuser {
		t.Fatalf("registration must never mint superusers")
	}

	// fresh account can log in
	authSvc := service.NewAuth(e.users)

	if _, err := authSvc.Authenticate(ctx, "sunny", "correct-horse-9"); err != nil {
		t.Fatalf("login by username: %v", err)
	}

	if _, err := authSvc.Authenticate(ctx, "sunny@example.com", "correct-horse-9"); err != nil {
		t.Fatalf("login by email: %v", err)
	}

	if _, err := authSvc.Authenticate(ctx, "sunny", "wrong"); err == nil {
		t.Fatalf("bad password must be rejected")
	}
}

func TestRegisterUserValidation(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	if _, err := e.registration.RegisterUser(ctx, validRegisterRequest("taken", "taken@example.com")); err != nil {
		t.Fatalf("seed register: %v", err)
	}

	tests := []struct {
		name      string
		req       user.RegisterRequest
		wantField string
	}{
		{
			name: "password_mismatch",
			req: user.RegisterRequest{
				Username:        "fresh",
				Email:           "fresh@example.com",
				Password:        "correct-horse-9",
				PasswordConfirm: "other-horse-9",
			},
			wantField: "passwordConfirm",
		},
		{
			name:      "duplicate_email",
			req:       validRegisterRequest("fresh", "taken@example.com"),
			wantField: "email",
		},
		{
			name:      "duplicate_username",
			req:       validRegisterRequest("taken", "fresh@example.com"),
			wantField: "username",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := e.registration.RegisterUser(ctx, tt.req)

			wantKind(t, err, apperrors.KindValidation)

			var appErr *apperrors.Error
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *apperrors.Error, got %T", err)
			}

			if _, ok := appErr.Fields[tt.wantField]; !ok {
				t.Fatalf("expected field %q in %v", tt.wantField, appErr.Fields)
			}
		})
	}
}

func TestCreateInstaller(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	// the bootstrap superuser is not an installer but may create them
	boot := authz.Principal{UserID: "boot-1", Role: user.RoleCustomer, Superuser: true}

	u, err := e.registration.CreateInstaller(ctx, boot, validRegisterRequest("inst1", "inst1@example.com"))

	if err != nil {
		t.Fatalf("superuser create installer: %v", err)
	}

	if !u.IsInstaller() {
		t.Fatalf("role = %s, want INSTALLER", u.Role)
	}

	if _, err := e.registration.CreateInstaller(ctx, installerPrincipal(), validRegisterRequest("inst2", "inst2@example.com")); err != nil {
		t.Fatalf("installer create installer: %v", err)
	}

	_, err = e.registration.CreateInstaller(ctx, customerPrincipal("p1"), validRegisterRequest("inst3", "inst3@example.com"))
	wantKind(t, err, apperrors.KindForbidden)

	_, err = e.registration.CreateInstaller(ctx, authz.Principal{}, validRegisterRequest("inst4", "inst4@example.com"))
	wantKind(t, err, apperrors.KindUnauthenticated)
}

func TestRegisterCustomer(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	u, c, err := e.registration.RegisterCustomer(ctx, validSelfRegistration("self@example.com"))

	if err != nil {
		t.Fatalf("self-register: %v", err)
	}

	if c.UserID == nil || *c.UserID != u.ID {
		t.Fatalf("profile must be linked to the new account")
	}

	if u.Username != "self@example.com" {
		t.Fatalf("username defaults to the email, got %q", u.Username)
	}

	// self-registered accounts can log in immediately
	authSvc := service.NewAuth(e.users)

	if _, err := authSvc.Authenticate(ctx, "self@example.com", "correct-horse-9"); err != nil {
		t.Fatalf("login after self-register: %v", err)
	}
}

func TestRegisterCustomerDisabledInProduction(t *testing.T) {
	e := newEnv(t, true)

	_, _, err := e.registration.RegisterCustomer(context.Background(), validSelfRegistration("prod@example.com"))

	wantKind(t, err, apperrors.KindDisabled)
}

func TestRegisterCustomerAtomicity(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	// an installer-created profile already owns the email
	mustCreateCustomer(t, e, "claimed@example.com")

	// remove the backing account so only the customer-table conflict remains
	backing, err := e.users.GetByEmail(ctx, "claimed@example.com")
	if err != nil {
		t.Fatalf("backing lookup: %v", err)
	}
	if err := e.users.Remove(ctx, backing.ID); err != nil {
		t.Fatalf("remove backing: %v", err)
	}

	_, _, err = e.registration.RegisterCustomer(ctx, validSelfRegistration("claimed@example.com"))

	wantKind(t, err, apperrors.KindValidation)

	// the failed registration must not leave a half-created account behind
	if _, err := e.users.GetByEmail(ctx, "claimed@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected no user row after failed registration, got %v", err)
	}
}

func TestRegisterCustomerValidation(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	req := validSelfRegistration("v@example.com")
	req.PasswordConfirm = "different-horse"

	_, _, err := e.registration.RegisterCustomer(ctx, req)
	wantKind(t, err, apperrors.KindValidation)

	req = validSelfRegistration("v@example.com")
	req.PostalCode = "  "

	_, _, err = e.registration.RegisterCustomer(ctx, req)
	wantKind(t, err, apperrors.KindValidation)
}

func TestCurrentUser(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	created, err := e.registration.RegisterUser(ctx, validRegisterRequest("me", "me@example.com"))

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	actor := authz.Principal{UserID: created.ID, Role: user.RoleCustomer}

	got, err := e.registration.CurrentUser(ctx, actor)

	if err != nil {
		t.Fatalf("current user: %v", err)
	}

	if got.ID != created.ID {
		t.Fatalf("got id %s, want %s", got.ID, created.ID)
	}

	_, err = e.registration.CurrentUser(ctx, authz.Principal{})
	wantKind(t, err, apperrors.KindUnauthenticated)

	updated, err := e.registration.UpdateCurrentUser(ctx, actor, user.UpdateProfileRequest{
		Username:  "me",
		Email:     "me@example.com",
		FirstName: "Max",
		LastName:  "Volt",
	})

	if err != nil {
		t.Fatalf("update profile: %v", err)
	}

	if updated.FirstName != "Max" || updated.LastName != "Volt" {
		t.Fatalf("profile update not applied: %+v", updated)
	}
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	// installer-created profiles get a login-disabled backing account
	mustCreateCustomer(t, e, "nologin@example.com")

	authSvc := service.NewAuth(e.users)

	_, err := authSvc.Authenticate(ctx, "nologin@example.com", "anything")
	wantKind(t, err, apperrors.KindUnauthenticated)
}

// Failure modes must be indistinguishable by their result: unknown account,
// wrong password, and disabled account all produce the same error.
func TestAuthenticateFailuresLookAlike(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	if _, err := e.registration.RegisterUser(ctx, validRegisterRequest("known", "known@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}

	mustCreateCustomer(t, e, "nologin@example.com")

	authSvc := service.NewAuth(e.users)

	_, missErr := authSvc.Authenticate(ctx, "nobody@example.com", "whatever")
	_, badPwErr := authSvc.Authenticate(ctx, "known@example.com", "wrong-password")
	_, disabledErr := authSvc.Authenticate(ctx, "nologin@example.com", "whatever")

	wantKind(t, missErr, apperrors.KindUnauthenticated)
	wantKind(t, badPwErr, apperrors.KindUnauthenticated)
	wantKind(t, disabledErr, apperrors.KindUnauthenticated)

	if missErr.Error() != badPwErr.Error() || badPwErr.Error() != disabledErr.Error() {
		t.Fatalf("failure messages differ: %q / %q / %q", missErr, badPwErr, disabledErr)
	}
}
