package manager_test

import (
	"testing"

	manager "github.com/adminware/go-manager"
	"github.com/stretchr/testify/assert"
)

func TestAccountAddMetadata(t *testing.T) {
	account := &manager.Account{}
	account.AddMetadata("source", "import").AddMetadata("batch", 7)

	assert.Equal(t, "import", account.Metadata["source"])
	assert.Equal(t, 7, account.Metadata["batch"])
}

func TestAccountPending(t *testing.T) {
	assert.True(t, (&manager.Account{ActivationToken: "abc123"}).Pending())
	assert.False(t, (&manager.Account{Active: true}).Pending())
}

func TestIsAdministrator(t *testing.T) {
	admin := &manager.Account{Role: &manager.Role{Name: manager.RoleAdministrators}}
	user := &manager.Account{Role: &manager.Role{Name: manager.RoleUsers}}

	assert.True(t, manager.IsAdministrator(admin))
	assert.False(t, manager.IsAdministrator(user))
	assert.False(t, manager.IsAdministrator(&manager.Account{}), "unloaded role relation")
	assert.False(t, manager.IsAdministrator(nil))
}
