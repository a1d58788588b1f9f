package domain

import (
	"fmt"
	"strings"
)

// KeyPrivilege is a capability granted to system-to-system callers via the
// authorised-key-privileges header. Privileges form a closed set at the API
// boundary even though they travel as plain strings on the wire.
type KeyPrivilege string

const (
	PrivilegeInternalApp KeyPrivilege = "internal-app"
	PrivilegeUserData    KeyPrivilege = "user-data"
)

// ParseKeyPrivilege validates a raw header token against the known set.
// Unknown values are rejected rather than silently passed through.
func ParseKeyPrivilege(raw string) (KeyPrivilege, error) {
	switch p := KeyPrivilege(strings.TrimSpace(raw)); p {
	case PrivilegeInternalApp, PrivilegeUserData:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown key privilege %q", ErrInvalidInput, raw)
	}
}
