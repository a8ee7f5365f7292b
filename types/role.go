package types

import (
	"encoding/json"
	"fmt"
)

// Role is a user's authorization level within the system.
type Role int

const (
	// RoleUser can submit jobs and read jobs/contests it has access to.
	RoleUser Role = iota

	// RoleAuthor can rejudge and cancel jobs and create contests.
	RoleAuthor

	// RoleAdmin can manage accounts and grant privileges.
	RoleAdmin
)

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAuthor:
		return "Author"
	case RoleAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

// AtLeast reports whether r authorizes actions requiring min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// MarshalJSON renders the role using its wire name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the role's wire name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole converts a wire role name into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "User":
		return RoleUser, nil
	case "Author":
		return RoleAuthor, nil
	case "Admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("types: unknown role %q", s)
	}
}
