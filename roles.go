package manager

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// RedirectResolver maps a role id to the post-login destination configured
// for that role.
type RedirectResolver struct {
	roles    RoleStore
	fallback string
	logger   Logger
}

// NewRedirectResolver returns a resolver that falls back to the given
// destination when a role cannot be resolved.
func NewRedirectResolver(roles RoleStore, fallback string) *RedirectResolver {
	return &RedirectResolver{
		roles:    roles,
		fallback: fallback,
		logger:   defLogger{},
	}
}

func (r *RedirectResolver) WithLogger(logger Logger) *RedirectResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Resolve returns the role's LoginRedirect. Roles are mutable reference
// data, so an unknown id is recovered with the fallback destination rather
// than treated as fatal; the miss is logged for operators.
func (r *RedirectResolver) Resolve(ctx context.Context, roleID uuid.UUID) string {
	role, err := r.roles.GetByID(ctx, roleID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			r.logger.Warn("redirect resolve: role not found, using fallback", "role_id", roleID)
		} else {
			r.logger.Error("redirect resolve: role lookup failed, using fallback", "role_id", roleID, "error", err)
		}
		return r.fallback
	}

	if role.LoginRedirect == "" {
		return r.fallback
	}

	return role.LoginRedirect
}
