package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/greenvolt/loanhub/internal/repo/memory"
	"github.com/greenvolt/loanhub/internal/security"
	"github.com/greenvolt/loanhub/internal/service"
)

// shared in-memory wiring for the service tests

type env struct {
	users     *memory.UsersRepo
	customers *memory.CustomersRepo
	offers    *memory.LoanOffersRepo

	customersSvc *service.Customers
	offersSvc    *service.LoanOffers
	registration *service.Registration
}

func newEnv(t *testing.T, production bool) *env {
	t.Helper()

	users := memory.NewUsersRepo()
	offers := memory.NewLoanOffersRepo()
	customers := memory.NewCustomersRepo(users, offers)

	return &env{
		users:        users,
		customers:    customers,
		offers:       offers,
		customersSvc: service.NewCustomers(customers, users),
		offersSvc:    service.NewLoanOffers(offers, customers, nil),
		registration: service.NewRegistration(users, customers, production),
	}
}

func installerPrincipal() authz.Principal {
	return authz.Principal{UserID: "installer-1", Role: user.RoleInstaller}
}

func customerPrincipal(profileID string) authz.Principal {
	return authz.Principal{UserID: "account-" + profileID, Role: user.RoleCustomer, ProfileID: profileID}
}

func validCustomerRequest(email string) customer.CreateCustomerRequest {
	return customer.CreateCustomerRequest{
		FirstName:    "Ada",
		LastName:     "Solar",
		Email:        email,
		PhoneNumber:  "+1 (555) 010-2030",
		AddressLine1: "12 Panel Way",
		City:         "Austin",
		State:        "TX",
		PostalCode:   " 78701 ",
	}
}

func mustCreateCustomer(t *testing.T, e *env, email string) customer.Customer {
	t.Helper()

	c, err := e.customersSvc.Create(context.Background(), installerPrincipal(), validCustomerRequest(email))

	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	return c
}

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", kind)
	}

	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("got kind %v, want %v (err=%v)", got, kind, err)
	}
}

func TestCustomersCreate(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	c, err := e.customersSvc.Create(ctx, installerPrincipal(), validCustomerRequest("ada@example.com"))

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if c.UserID == nil {
		t.Fatalf("expected backing account to be linked")
	}

	if c.Country != "US" {
		t.Fatalf("expected default country US, got %q", c.Country)
	}

	if c.PostalCode != "78701" {
		t.Fatalf("expected trimmed postal code, got %q", c.PostalCode)
	}

	if c.CreatedBy == nil || *c.CreatedBy != "installer-1" {
		t.Fatalf("expected createdBy to record the acting installer")
	}

	backing, err := e.users.GetByEmail(ctx, "ada@example.com")

	if err != nil {
		t.Fatalf("backing account missing: %v", err)
	}

	if backing.Username != "ada@example.com" {
		t.Fatalf("backing username should be the email, got %q", backing.Username)
	}

	if security.IsUsable(backing.PasswordHash) {
		t.Fatalf("backing account must not be able to log in")
	}
}

func TestCustomersCreateValidation(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	mustCreateCustomer(t, e, "taken@example.com")

	tests := []struct {
		name      string
		mutate    func(*customer.CreateCustomerRequest)
		wantField string
	}{
		{
			name:      "duplicate_email",
			mutate:    func(r *customer.CreateCustomerRequest) { r.Email = "taken@example.com" },
			wantField: "email",
		},
		{
			name:      "duplicate_email_case_insensitive",
			mutate:    func(r *customer.CreateCustomerRequest) { r.Email = "TAKEN@Example.COM" },
			wantField: "email",
		},
		{
			name:      "blank_postal_code",
			mutate:    func(r *customer.CreateCustomerRequest) { r.PostalCode = "   " },
			wantField: "postalCode",
		},
		{
			name:      "bad_phone",
			mutate:    func(r *customer.CreateCustomerRequest) { r.PhoneNumber = "call me maybe" },
			wantField: "phoneNumber",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			req := validCustomerRequest("fresh@example.com")
			tt.mutate(&req)

			_, err := e.customersSvc.Create(ctx, installerPrincipal(), req)

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

// Two simultaneous creates with the same email: the store's uniqueness
// check, not the pre-validation lookup, is what serializes them.
func TestCustomersCreateConcurrentDuplicateEmail(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	const email = "race@example.com"

	results := make(chan error, 2)

	var start sync.WaitGroup
	start.Add(1)

	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			_, err := e.customersSvc.Create(ctx, installerPrincipal(), validCustomerRequest(email))
			results <- err
		}()
	}

	start.Done()

	var successes, rejections int

	for i := 0; i < 2; i++ {
		err := <-results

		switch {
		case err == nil:
			successes++
		// the loser fails either at the pre-check or on the unique index
		case apperrors.IsKind(err, apperrors.KindConflict) || apperrors.IsKind(err, apperrors.KindValidation):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || rejections != 1 {
		t.Fatalf("want exactly one success and one rejection, got %d successes, %d rejections", successes, rejections)
	}

	_, total, err := e.customersSvc.List(ctx, installerPrincipal(), customer.ListCustomersFilter{})

	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if total != 1 {
		t.Fatalf("exactly one record must exist after the race, total=%d", total)
	}
}

func TestCustomersCreateDeniedForCustomers(t *testing.T) {
	e := newEnv(t, false)

	_, err := e.customersSvc.Create(context.Background(), customerPrincipal("p1"), validCustomerRequest("x@example.com"))

	wantKind(t, err, apperrors.KindForbidden)

	_, err = e.customersSvc.Create(context.Background(), authz.Principal{}, validCustomerRequest("x@example.com"))

	wantKind(t, err, apperrors.KindUnauthenticated)
}

func TestCustomersGet(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	own := mustCreateCustomer(t, e, "own@example.com")
	other := mustCreateCustomer(t, e, "other@example.com")

	// installer reads anything
	if _, err := e.customersSvc.Get(ctx, installerPrincipal(), other.ID); err != nil {
		t.Fatalf("installer get: %v", err)
	}

	// customer reads own record
	if _, err := e.customersSvc.Get(ctx, customerPrincipal(own.ID), own.ID); err != nil {
		t.Fatalf("customer get own: %v", err)
	}

	// existing but unowned record is forbidden, not hidden
	_, err := e.customersSvc.Get(ctx, customerPrincipal(own.ID), other.ID)
	wantKind(t, err, apperrors.KindForbidden)

	// absent record is not-found for any authenticated principal
	_, err = e.customersSvc.Get(ctx, customerPrincipal(own.ID), "no-such-id")
	wantKind(t, err, apperrors.KindNotFound)

	_, err = e.customersSvc.Get(ctx, authz.Principal{}, own.ID)
	wantKind(t, err, apperrors.KindUnauthenticated)
}

func TestCustomersList(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	a := mustCreateCustomer(t, e, "a@example.com")
	mustCreateCustomer(t, e, "b@example.com")

	items, total, err := e.customersSvc.List(ctx, installerPrincipal(), customer.ListCustomersFilter{})

	if err != nil {
		t.Fatalf("installer list: %v", err)
	}

	if total != 2 || len(items) != 2 {
		t.Fatalf("installer should see all: total=%d len=%d", total, len(items))
	}

	// a customer only ever sees their own record
	items, total, err = e.customersSvc.List(ctx, customerPrincipal(a.ID), customer.ListCustomersFilter{})

	if err != nil {
		t.Fatalf("customer list: %v", err)
	}

	if total != 1 || len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("customer should see exactly their record, got total=%d", total)
	}

	// a filter that excludes the own record yields an empty page, not an error
	city := "Nowhere"
	items, total, err = e.customersSvc.List(ctx, customerPrincipal(a.ID), customer.ListCustomersFilter{City: &city})

	if err != nil {
		t.Fatalf("customer filtered list: %v", err)
	}

	if total != 0 || len(items) != 0 {
		t.Fatalf("filter mismatch should be empty, got total=%d", total)
	}

	// a customer account with no linked profile sees nothing
	items, total, err = e.customersSvc.List(ctx, authz.Principal{UserID: "acct-x", Role: user.RoleCustomer}, customer.ListCustomersFilter{})

	if err != nil {
		t.Fatalf("unlinked list: %v", err)
	}

	if total != 0 || len(items) != 0 {
		t.Fatalf("unlinked customer should see nothing, got total=%d", total)
	}
}

func TestCustomersUpdate(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	c := mustCreateCustomer(t, e, "u1@example.com")
	mustCreateCustomer(t, e, "u2@example.com")

	req := validCustomerRequest("u1@example.com")
	req.City = "Denver"

	updated, err := e.customersSvc.Update(ctx, installerPrincipal(), c.ID, req)

	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.City != "Denver" {
		t.Fatalf("update not applied, city=%q", updated.City)
	}

	// renaming onto another customer's email is rejected before the store
	req.Email = "u2@example.com"
	_, err = e.customersSvc.Update(ctx, installerPrincipal(), c.ID, req)
	wantKind(t, err, apperrors.KindValidation)

	_, err = e.customersSvc.Update(ctx, installerPrincipal(), "missing", validCustomerRequest("u3@example.com"))
	wantKind(t, err, apperrors.KindNotFound)

	_, err = e.customersSvc.Update(ctx, customerPrincipal(c.ID), c.ID, req)
	wantKind(t, err, apperrors.KindForbidden)
}

func TestCustomersDelete(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	c := mustCreateCustomer(t, e, "del@example.com")

	// a customer with loan offers cannot be removed
	mustCreateOffer(t, e, c.ID)

	err := e.customersSvc.Delete(ctx, installerPrincipal(), c.ID)
	wantKind(t, err, apperrors.KindConflict)

	// without offers the delete goes through
	clean := mustCreateCustomer(t, e, "clean@example.com")

	if err := e.customersSvc.Delete(ctx, installerPrincipal(), clean.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = e.customersSvc.Delete(ctx, installerPrincipal(), clean.ID)
	wantKind(t, err, apperrors.KindNotFound)

	err = e.customersSvc.Delete(ctx, customerPrincipal(c.ID), c.ID)
	wantKind(t, err, apperrors.KindForbidden)
}
