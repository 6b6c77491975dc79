package application

import (
	"errors"
	"testing"
)

func TestCan(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		principal Principal
		caps      []Capability
		want      bool
	}{
		{name: "admin manages users", principal: Principal{UserID: "a", Role: RoleAdmin}, caps: []Capability{CapManageUsers}, want: true},
		{name: "editor approves bookings", principal: Principal{UserID: "e", Role: RoleEditor}, caps: []Capability{CapApproveBookings, CapManageRooms}, want: true},
		{name: "editor cannot manage users", principal: Principal{UserID: "e", Role: RoleEditor}, caps: []Capability{CapManageUsers}, want: false},
		{name: "editor cannot change settings", principal: Principal{UserID: "e", Role: RoleEditor}, caps: []Capability{CapManageSettings}, want: false},
		{name: "user has nothing", principal: Principal{UserID: "u", Role: RoleUser}, caps: []Capability{CapViewReports}, want: false},
		{name: "anonymous has nothing", principal: Principal{Role: RoleAdmin}, caps: []Capability{CapManageRooms}, want: false},
		{name: "unknown role", principal: Principal{UserID: "x", Role: Role("owner")}, caps: []Capability{CapManageRooms}, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Can(tc.principal, tc.caps...); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	if got := Capabilities(Principal{UserID: "u", Role: RoleUser}); len(got) != 0 {
		t.Fatalf("expected no capabilities for user, got %v", got)
	}
	if got := Capabilities(Principal{UserID: "a", Role: RoleAdmin}); len(got) != 6 {
		t.Fatalf("expected six capabilities for admin, got %v", got)
	}
	got := Capabilities(Principal{UserID: "e", Role: RoleEditor})
	if len(got) != 4 || got[0] != CapManageRooms {
		t.Fatalf("unexpected editor capabilities %v", got)
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	if err := require(Principal{}, CapManageRooms); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := require(Principal{UserID: "u", Role: RoleUser}, CapManageRooms); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := require(Principal{UserID: "a", Role: RoleAdmin}, CapManageRooms); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
}
