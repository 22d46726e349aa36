package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Privilege is the coarse access level attached to an account. Admin strictly
// dominates Standard: an Admin caller satisfies any requirement.
type Privilege string

const (
	PrivilegeStandard Privilege = "Standard"
	PrivilegeAdmin    Privilege = "Admin"
)

// Valid reports whether p is one of the known privilege levels.
func (p Privilege) Valid() bool {
	return p == PrivilegeStandard || p == PrivilegeAdmin
}

// Satisfies reports whether a caller holding p meets the required level.
func (p Privilege) Satisfies(required Privilege) bool {
	return p == PrivilegeAdmin || p == required
}

// Account represents a registered principal. Email is the natural key and is
// unique across all accounts; the canonical record lives in PostgreSQL and the
// core only ever holds request-scoped copies.
type Account struct {
	ID            uuid.UUID
	Email         string
	FirstName     string
	LastName      string
	Avatar        *string
	ContactEmails []string
	LastSeen      time.Time
	PasswordHash  string
	Privilege     Privilege
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contact is an embedded view of another account referenced from a contact
// list. Contact lists of embedded contacts are never expanded.
type Contact struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Avatar    *string
	LastSeen  time.Time
	Privilege Privilege
}
