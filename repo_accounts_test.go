package manager_test

import (
	"context"
	"database/sql"
	"testing"

	manager "github.com/adminware/go-manager"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateRoles = `CREATE TABLE roles (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    login_redirect TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
	sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    role_id TEXT NOT NULL,
    first_name TEXT,
    last_name TEXT,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT,
    password_hash TEXT,
    active BOOLEAN NOT NULL DEFAULT FALSE,
    activation_token TEXT,
    metadata TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL,
    FOREIGN KEY (role_id) REFERENCES roles (id)
);`
)

func setupRepo(t *testing.T) (manager.RepositoryManager, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateRoles)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return manager.NewRepositoryManager(bunDB), cleanup
}

func seedAccount(t *testing.T, repo manager.RepositoryManager, account *manager.Account) *manager.Account {
	t.Helper()

	ctx := context.Background()

	role, err := repo.Roles().GetByName(ctx, manager.RoleUsers)
	if repository.IsRecordNotFound(err) {
		role, err = repo.Roles().Create(ctx, &manager.Role{Name: manager.RoleUsers, LoginRedirect: "/"})
	}
	require.NoError(t, err)

	account.RoleID = role.ID
	created, err := repo.Accounts().Create(ctx, account)
	require.NoError(t, err)

	return created
}

func TestAccountsGetByEmail(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()

	seedAccount(t, repo, &manager.Account{
		Email:           "peque@example.com",
		PasswordHash:    "irrelevant",
		ActivationToken: "abc123",
	})

	found, err := repo.Accounts().GetByEmail(ctx, "peque@example.com")
	require.NoError(t, err)
	assert.Equal(t, "peque@example.com", found.Email)
	assert.Equal(t, "abc123", found.ActivationToken)
	assert.False(t, found.Active)
	assert.True(t, found.Pending())

	_, err = repo.Accounts().GetByEmail(ctx, "nobody@example.com")
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsConsumeActivationToken(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()

	seedAccount(t, repo, &manager.Account{
		Email:           "peque@example.com",
		PasswordHash:    "irrelevant",
		ActivationToken: "abc123",
	})

	t.Run("activates and clears the token", func(t *testing.T) {
		account, err := repo.Accounts().ConsumeActivationToken(ctx, "peque@example.com", "abc123", true)
		require.NoError(t, err)

		assert.True(t, account.Active)
		assert.Empty(t, account.ActivationToken)
	})

	t.Run("second consume finds nothing", func(t *testing.T) {
		_, err := repo.Accounts().ConsumeActivationToken(ctx, "peque@example.com", "abc123", true)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("mismatched token finds nothing", func(t *testing.T) {
		seedAccount(t, repo, &manager.Account{
			Email:           "other@example.com",
			PasswordHash:    "irrelevant",
			ActivationToken: "real-token",
		})

		_, err := repo.Accounts().ConsumeActivationToken(ctx, "other@example.com", "wrong-token", true)
		assert.True(t, repository.IsRecordNotFound(err))

		account, err := repo.Accounts().GetByEmail(ctx, "other@example.com")
		require.NoError(t, err)
		assert.Equal(t, "real-token", account.ActivationToken, "a failed consume must not touch the row")
		assert.False(t, account.Active)
	})

	t.Run("without activation the active flag is preserved", func(t *testing.T) {
		seedAccount(t, repo, &manager.Account{
			Email:           "reset@example.com",
			PasswordHash:    "irrelevant",
			ActivationToken: "reset-token",
		})

		account, err := repo.Accounts().ConsumeActivationToken(ctx, "reset@example.com", "reset-token", false)
		require.NoError(t, err)
		assert.Empty(t, account.ActivationToken)
		assert.False(t, account.Active)
	})
}

func TestAccountsResetPassword(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()

	seedAccount(t, repo, &manager.Account{
		Email:           "peque@example.com",
		PasswordHash:    "old-hash",
		ActivationToken: "abc123",
	})

	account, err := repo.Accounts().ResetPassword(ctx, "peque@example.com", "abc123", "new-hash")
	require.NoError(t, err)

	assert.Equal(t, "new-hash", account.PasswordHash)
	assert.Empty(t, account.ActivationToken)
	assert.True(t, account.Active, "a password reset proves email ownership")

	_, err = repo.Accounts().ResetPassword(ctx, "peque@example.com", "abc123", "newer-hash")
	assert.True(t, repository.IsRecordNotFound(err), "the token is gone after the first reset")

	account, err = repo.Accounts().GetByEmail(ctx, "peque@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", account.PasswordHash)
}

func TestSeedDefaultRoles(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, manager.SeedDefaultRoles(ctx, repo, nil))

	admin, err := repo.Roles().GetByName(ctx, manager.RoleAdministrators)
	require.NoError(t, err)
	assert.Equal(t, "/admin/manager/users", admin.LoginRedirect)

	for _, name := range []string{manager.RoleModerators, manager.RoleUsers, manager.RoleUnregistered} {
		role, err := repo.Roles().GetByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "/", role.LoginRedirect)
	}

	// Running again must not duplicate or error.
	require.NoError(t, manager.SeedDefaultRoles(ctx, repo, nil))

	again, err := repo.Roles().GetByName(ctx, manager.RoleAdministrators)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
}

func TestRegisterAccountHandler(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, manager.SeedDefaultRoles(ctx, repo, nil))

	bus := manager.NewDispatcher()
	tokens := manager.NewTokenService(repo.Accounts(), nil)

	var registered *manager.Account
	bus.Subscribe(manager.EventAfterRegister, func(ctx context.Context, event manager.Event) {
		registered = event.Account
	})

	handler := manager.NewRegisterAccountHandler(repo, tokens, bus)

	var response *manager.Account
	err := handler.Execute(ctx, manager.RegisterAccountMessage{
		FirstName:  "Peque",
		Email:      "peque@example.com",
		Password:   "sup3r-secret-pass",
		OnResponse: func(account *manager.Account) { response = account },
	})
	require.NoError(t, err)

	account, err := repo.Accounts().GetByEmail(ctx, "peque@example.com")
	require.NoError(t, err)

	assert.False(t, account.Active, "accounts start inactive")
	assert.True(t, account.Pending())
	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.NoError(t, manager.ComparePasswordAndHash("sup3r-secret-pass", account.PasswordHash))

	role, err := repo.Roles().GetByName(ctx, manager.RoleUsers)
	require.NoError(t, err)
	assert.Equal(t, role.ID, account.RoleID)

	require.NotNil(t, registered, "afterRegister must fire")
	assert.Equal(t, account.Email, registered.Email)
	if response != nil {
		assert.Equal(t, account.Email, response.Email)
	}
}
