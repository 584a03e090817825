package vault

// Role identifies which part of the gateway is asking for vault access.
// Access control is hard-coded, not configurable: only the roles listed
// in each operation's allowed set may perform it, regardless of config.
type Role string

const (
	// RoleOwner is the gateway's protect() path: the only role that may
	// store a new vault entry.
	RoleOwner Role = "OWNER"
	// RoleResolver is the gateway's restore() path: permitted to read
	// (but never to store) alongside OWNER.
	RoleResolver Role = "RESOLVER"
)

var storeAllowed = map[Role]bool{RoleOwner: true}
var retrieveAllowed = map[Role]bool{RoleOwner: true, RoleResolver: true}

// CanStore reports whether role may store a new vault entry.
func CanStore(role Role) bool { return storeAllowed[role] }

// CanRetrieve reports whether role may retrieve a vault entry.
func CanRetrieve(role Role) bool { return retrieveAllowed[role] }
