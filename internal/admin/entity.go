package admin

import (
	"errors"
	"fmt"

	"github.com/ukane-philemon/srms/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// Admin is the single account allowed to modify student records over the
// API.
type Admin struct {
	Username       string
	HashedPassword []byte
}

// AdminRepository implements Repository.
type AdminRepository struct {
	admin *Admin
}

// NewRepository creates a new instance of *AdminRepository for the account
// with username and bcrypt passwordHash.
func NewRepository(username string, passwordHash []byte) (Repository, error) {
	if username == "" || len(passwordHash) == 0 {
		return nil, errors.New("missing admin username or password hash")
	}

	if _, err := bcrypt.Cost(passwordHash); err != nil {
		return nil, fmt.Errorf("bcrypt.Cost error: %w", err)
	}

	return &AdminRepository{
		admin: &Admin{
			Username:       username,
			HashedPassword: passwordHash,
		},
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: missing password", db.ErrorInvalidRequest)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt.GenerateFromPassword error: %w", err)
	}

	return passwordHash, nil
}

// LoginAccount implements Repository.
func (ar *AdminRepository) LoginAccount(username, password string) (string, error) {
	if username != ar.admin.Username {
		return "", fmt.Errorf("%w: username or password is incorrect", db.ErrorInvalidRequest)
	}

	err := bcrypt.CompareHashAndPassword(ar.admin.HashedPassword, []byte(password))
	if err != nil {
		return "", fmt.Errorf("%w: username or password is incorrect", db.ErrorInvalidRequest)
	}

	return ar.admin.Username, nil
}
