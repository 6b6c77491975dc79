package application

// Capability names a permission checked before a mutation or privileged read.
type Capability string

const (
	CapManageRooms     Capability = "manage_rooms"
	CapManageUsers     Capability = "manage_users"
	CapApproveBookings Capability = "approve_bookings"
	CapViewReports     Capability = "view_reports"
	CapManageSettings  Capability = "manage_settings"
	CapViewAllBookings Capability = "view_all_bookings"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManageRooms:     true,
		CapManageUsers:     true,
		CapApproveBookings: true,
		CapViewReports:     true,
		CapManageSettings:  true,
		CapViewAllBookings: true,
	},
	RoleEditor: {
		CapManageRooms:     true,
		CapApproveBookings: true,
		CapViewReports:     true,
		CapViewAllBookings: true,
	},
	RoleUser: {},
}

// Can reports whether the principal holds every listed capability. An
// anonymous principal holds none.
func Can(principal Principal, caps ...Capability) bool {
	if principal.UserID == "" {
		return false
	}
	granted, ok := roleCapabilities[principal.Role]
	if !ok {
		return false
	}
	for _, c := range caps {
		if !granted[c] {
			return false
		}
	}
	return true
}

// Capabilities lists what the principal may do, in a fixed order.
func Capabilities(principal Principal) []Capability {
	all := []Capability{CapManageRooms, CapManageUsers, CapApproveBookings, CapViewReports, CapManageSettings, CapViewAllBookings}
	out := make([]Capability, 0, len(all))
	for _, c := range all {
		if Can(principal, c) {
			out = append(out, c)
		}
	}
	return out
}

// require returns ErrUnauthorized for anonymous callers and ErrForbidden when
// a capability is missing.
func require(principal Principal, caps ...Capability) error {
	if principal.UserID == "" {
		return ErrUnauthorized
	}
	if !Can(principal, caps...) {
		return ErrForbidden
	}
	return nil
}
