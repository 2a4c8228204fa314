package manager_test

import (
	"testing"

	manager "github.com/adminware/go-manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := manager.HashPassword("sup3r-secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "sup3r-secret-pass", hash)

	assert.NoError(t, manager.ComparePasswordAndHash("sup3r-secret-pass", hash))
	assert.ErrorIs(t,
		manager.ComparePasswordAndHash("wrong-pass-phrase", hash),
		manager.ErrMismatchedHashAndPassword,
	)
}

func TestHashPasswordRejectsEmptyString(t *testing.T) {
	_, err := manager.HashPassword("")
	assert.ErrorIs(t, err, manager.ErrNoEmptyString)
}
