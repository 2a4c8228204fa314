package manager

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// DefaultRoles are the roles a fresh installation starts with.
// Administrators land in the admin area after login, everyone else on the
// site root.
var DefaultRoles = []Role{
	{Name: RoleAdministrators, LoginRedirect: "/admin/manager/users"},
	{Name: RoleModerators, LoginRedirect: "/"},
	{Name: RoleUsers, LoginRedirect: "/"},
	{Name: RoleUnregistered, LoginRedirect: "/"},
}

// SeedDefaultRoles creates any of the default roles that do not exist yet.
// It is idempotent: roles are matched by name, existing rows are left alone.
// Hosts call this from their bootstrap.
func SeedDefaultRoles(ctx context.Context, repo RepositoryManager, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, role := range DefaultRoles {
			if _, err := repo.Roles().GetByNameTx(ctx, tx, role.Name); err == nil {
				continue
			} else if !repository.IsRecordNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up role during seeding")
			}

			record := role
			if _, err := repo.Roles().CreateTx(ctx, tx, &record); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create role "+role.Name)
			}

			logger.Info("role created", "name", role.Name, "login_redirect", role.LoginRedirect)
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "role seeding transaction failed")
	}

	return nil
}
