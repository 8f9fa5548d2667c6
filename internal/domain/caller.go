package domain

import "slices"

// Caller is the authenticated identity threaded through every operation.
type Caller struct {
	UserID uint
	Roles  []string
}

func NewCaller(userID uint, roles ...string) Caller {
	return Caller{UserID: userID, Roles: roles}
}

// SystemCaller identifies trusted internal triggers such as a verified payment callback.
func SystemCaller() Caller {
	return Caller{Roles: []string{RoleSystem}}
}

func (c Caller) HasRole(role string) bool { return slices.Contains(c.Roles, role) }
func (c Caller) IsPartner() bool          { return c.HasRole(RolePartner) }
func (c Caller) IsAdmin() bool            { return c.HasRole(RoleAdmin) }
func (c Caller) IsSystem() bool           { return c.HasRole(RoleSystem) }

// Authenticated is false for the zero Caller.
func (c Caller) Authenticated() bool {
	return c.UserID != 0 || c.IsSystem()
}

// Is reports whether the caller is the user behind id.
func (c Caller) Is(id *uint) bool {
	return id != nil && c.UserID != 0 && *id == c.UserID
}
