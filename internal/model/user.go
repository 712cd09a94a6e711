package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
	RoleVisitor = "VISITOR"
	RoleStaff   = "STAFF"
	RoleAdmin   = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  Handlers define separate
// response types with JSON tags; this struct is used by the repository
// layer only.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	Role         string    // users.role (VISITOR, STAFF or ADMIN)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Identity is the authenticated caller as seen by the booking engine.  It
// is derived from JWT claims by the HTTP layer and passed into services so
// the engine never touches tokens itself.
type Identity struct {
	ID   uint64
	Role string
}

// IsStaff reports whether the identity may validate tickets at the door.
// Admins are staff for admission purposes.
func (i Identity) IsStaff() bool {
	return i.Role == RoleStaff || i.Role == RoleAdmin
}

// IsAdmin reports whether the identity holds the admin capability.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
