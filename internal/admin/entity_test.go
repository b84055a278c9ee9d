package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukane-philemon/srms/internal/db"
)

func TestLoginAccount(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	repo, err := NewRepository("admin", hash)
	require.NoError(t, err)

	id, err := repo.LoginAccount("admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", id)

	_, err = repo.LoginAccount("admin", "wrong")
	assert.ErrorIs(t, err, db.ErrorInvalidRequest)

	_, err = repo.LoginAccount("root", "secret")
	assert.ErrorIs(t, err, db.ErrorInvalidRequest)
}

func TestNewRepositoryRejectsBadHash(t *testing.T) {
	_, err := NewRepository("admin", []byte("plain-text"))
	assert.Error(t, err)

	_, err = NewRepository("", []byte("x"))
	assert.Error(t, err)

	_, err = HashPassword("")
	assert.ErrorIs(t, err, db.ErrorInvalidRequest)
}
