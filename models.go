package manager

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the account model. An account is created inactive with a fresh
// activation token; it becomes active exactly once, through a token consume.
// Invariant: Active == true implies ActivationToken == "".
type Account struct {
	bun.BaseModel   `bun:"table:accounts,alias:acc"`
	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RoleID          uuid.UUID      `bun:"role_id,notnull,type:uuid" json:"role_id,omitempty"`
	Role            *Role          `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	FirstName       string         `bun:"first_name" json:"first_name,omitempty"`
	LastName        string         `bun:"last_name" json:"last_name,omitempty"`
	Email           string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone           string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash    string         `bun:"password_hash" json:"password_hash,omitempty"`
	Active          bool           `bun:"active,notnull,default:false" json:"active"`
	ActivationToken string         `bun:"activation_token,nullzero" json:"-"`
	Metadata        map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (a *Account) AddMetadata(key string, val any) *Account {
	if a.Metadata == nil {
		a.Metadata = make(map[string]any)
	}
	a.Metadata[key] = val
	return a
}

// Pending reports whether the account still carries an unconsumed token.
func (a *Account) Pending() bool {
	return a.ActivationToken != ""
}

// Role is long-lived reference data. LoginRedirect is the destination members
// of the role land on after a successful login.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	LoginRedirect string     `bun:"login_redirect,notnull" json:"login_redirect,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

const (
	// RoleAdministrators members manage the admin area
	RoleAdministrators = "Administrators"
	// RoleModerators members moderate content
	RoleModerators = "Moderators"
	// RoleUsers is the default member role
	RoleUsers = "Users"
	// RoleUnregistered is for accounts that never completed registration
	RoleUnregistered = "Unregistered"
)
