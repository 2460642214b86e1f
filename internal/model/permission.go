package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Permission is the set of roles a user holds on a project.
type Permission struct {
	Member    bool `json:"member"`
	Spectator bool `json:"spectator"`
	Manager   bool `json:"manager"`
}

// DecodePermission converts a 3-bit mode <member><spectator><manager> into a
// Permission, so 5 (101) is member and manager.
func DecodePermission(mode int) (Permission, error) {
	if mode < 0 || mode > 7 {
		return Permission{}, fmt.Errorf("invalid access mode %d: must be between 0 and 7", mode)
	}
	return Permission{
		Member:    mode&0b100 != 0,
		Spectator: mode&0b010 != 0,
		Manager:   mode&0b001 != 0,
	}, nil
}

// ParsePermission decodes a decimal access mode such as "5".
func ParsePermission(s string) (Permission, error) {
	mode, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Permission{}, fmt.Errorf("invalid access mode %q: %w", s, err)
	}
	return DecodePermission(mode)
}

// Mode is the inverse of DecodePermission.
func (p Permission) Mode() int {
	mode := 0
	if p.Member {
		mode |= 0b100
	}
	if p.Spectator {
		mode |= 0b010
	}
	if p.Manager {
		mode |= 0b001
	}
	return mode
}

// Roles lists the roles that are set, in member, spectator, manager order.
func (p Permission) Roles() []string {
	var roles []string
	if p.Member {
		roles = append(roles, "member")
	}
	if p.Spectator {
		roles = append(roles, "spectator")
	}
	if p.Manager {
		roles = append(roles, "manager")
	}
	return roles
}

// Permissions maps usernames to their project permissions.
type Permissions map[string]Permission

// Usernames returns the users in sorted order.
func (p Permissions) Usernames() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PermissionsOf reads a project's "users" value, which is either a
// Permissions map built locally or the decoded JSON object from the server.
func PermissionsOf(v any) Permissions {
	switch users := v.(type) {
	case Permissions:
		return users
	case map[string]Permission:
		return Permissions(users)
	case map[string]any:
		out := make(Permissions, len(users))
		for name, raw := range users {
			perm, _ := raw.(map[string]any)
			member, _ := perm["member"].(bool)
			spectator, _ := perm["spectator"].(bool)
			manager, _ := perm["manager"].(bool)
			out[name] = Permission{Member: member, Spectator: spectator, Manager: manager}
		}
		return out
	}
	return nil
}
