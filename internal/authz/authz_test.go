package authz_test

import (
	"testing"

	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/greenvolt/loanhub/internal/domain/user"
)

var (
	installer        = authz.Principal{UserID: "u-installer", Role: user.RoleInstaller}
	linkedCustomer   = authz.Principal{UserID: "u-cust", Role: user.RoleCustomer, ProfileID: "c-1"}
	unlinkedCustomer = authz.Principal{UserID: "u-lonely", Role: user.RoleCustomer}
	superuser        = authz.Principal{UserID: "u-root", Role: user.RoleInstaller, Superuser: true}
	customerSuper    = authz.Principal{UserID: "u-odd", Role: user.RoleCustomer, Superuser: true}
	anonymous        = authz.Principal{}
)

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", kind)
	}

	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("got kind %v, want %v (err: %v)", got, kind, err)
	}
}

func TestCanMutate(t *testing.T) {
	if err := authz.CanMutate(installer); err != nil {
		t.Fatalf("installer mutate: %v", err)
	}

	wantKind(t, authz.CanMutate(linkedCustomer), apperrors.KindForbidden)
	wantKind(t, authz.CanMutate(unlinkedCustomer), apperrors.KindForbidden)
	wantKind(t, authz.CanMutate(anonymous), apperrors.KindUnauthenticated)

	// superuser flag does not widen mutation rights for a customer account
	wantKind(t, authz.CanMutate(customerSuper), apperrors.KindForbidden)
}

func TestCanReadCustomerRecord(t *testing.T) {
	own := customer.Customer{ID: "c-1"}
	other := customer.Customer{ID: "c-2"}

	if err := authz.CanRead(installer, own); err != nil {
		t.Fatalf("installer read own-type record: %v", err)
	}
	if err := authz.CanRead(installer, other); err != nil {
		t.Fatalf("installer read any record: %v", err)
	}

	if err := authz.CanRead(linkedCustomer, own); err != nil {
		t.Fatalf("customer read own profile: %v", err)
	}

	// an existing but unowned object is forbidden, never not-found
	wantKind(t, authz.CanRead(linkedCustomer, other), apperrors.KindForbidden)
	wantKind(t, authz.CanRead(unlinkedCustomer, own), apperrors.KindForbidden)
	wantKind(t, authz.CanRead(anonymous, own), apperrors.KindUnauthenticated)
}

func TestCanReadLoanOffer(t *testing.T) {
	owned := loanoffer.LoanOffer{ID: "l-1", CustomerID: "c-1"}
	foreign := loanoffer.LoanOffer{ID: "l-2", CustomerID: "c-2"}

	if err := authz.CanRead(installer, foreign); err != nil {
		t.Fatalf("installer read any offer: %v", err)
	}

	if err := authz.CanRead(linkedCustomer, owned); err != nil {
		t.Fatalf("customer read own offer: %v", err)
	}

	wantKind(t, authz.CanRead(linkedCustomer, foreign), apperrors.KindForbidden)
	wantKind(t, authz.CanRead(unlinkedCustomer, owned), apperrors.KindForbidden)
	wantKind(t, authz.CanRead(anonymous, owned), apperrors.KindUnauthenticated)
}

func TestListScope(t *testing.T) {
	tests := []struct {
		name      string
		principal authz.Principal
		want      authz.Scope
		wantErr   bool
	}{
		{name: "installer_sees_all", principal: installer, want: authz.ScopeAll},
		{name: "linked_customer_sees_own", principal: linkedCustomer, want: authz.ScopeOwn},
		{name: "unlinked_customer_sees_nothing", principal: unlinkedCustomer, want: authz.ScopeNone},
		{name: "anonymous_rejected", principal: anonymous, want: authz.ScopeNone, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got, err := authz.ListScope(tt.principal)

			if tt.wantErr {
				wantKind(t, err, apperrors.KindUnauthenticated)
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("got scope %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanCreateInstaller(t *testing.T) {
	if err := authz.CanCreateInstaller(installer); err != nil {
		t.Fatalf("installer creates installer: %v", err)
	}

	if err := authz.CanCreateInstaller(superuser); err != nil {
		t.Fatalf("superuser creates installer: %v", err)
	}

	// superuser flag is honored even on a customer-role account, but only here
	if err := authz.CanCreateInstaller(customerSuper); err != nil {
		t.Fatalf("superuser customer creates installer: %v", err)
	}

	wantKind(t, authz.CanCreateInstaller(linkedCustomer), apperrors.KindForbidden)
	wantKind(t, authz.CanCreateInstaller(anonymous), apperrors.KindUnauthenticated)
}
